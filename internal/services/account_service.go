package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/costpulse/costpulse/internal/cache"
	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/domain/baseline"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/providers"
)

// CredentialsStore is the full credential lifecycle the account service
// needs; providers.SecretboxStore satisfies it.
type CredentialsStore interface {
	providers.CredentialsProvider
	Store(ctx context.Context, ref string, creds providers.Credentials) error
	Delete(ctx context.Context, ref string) error
}

// AccountService manages cloud account registration and teardown. Deleting
// an account also removes its snapshots, baselines, anomaly events, cached
// data and sealed credentials.
type AccountService struct {
	accounts  account.Repository
	snapshots snapshot.Repository
	baselines baseline.Repository
	anomalies anomaly.Repository
	creds     CredentialsStore
	cache     cache.SnapshotCache
	log       *logger.Logger
}

// NewAccountService creates an account service.
func NewAccountService(
	accounts account.Repository,
	snapshots snapshot.Repository,
	baselines baseline.Repository,
	anomalies anomaly.Repository,
	creds CredentialsStore,
	snapCache cache.SnapshotCache,
	log *logger.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		snapshots: snapshots,
		baselines: baselines,
		anomalies: anomalies,
		creds:     creds,
		cache:     snapCache,
		log:       log,
	}
}

// Register creates an account and seals its provider credentials. The
// credentials never touch the accounts table; only an opaque reference does.
func (s *AccountService) Register(ctx context.Context, userID int64, providerID, name string, creds providers.Credentials) (*account.Account, error) {
	if !account.ValidProviderID(providerID) {
		return nil, errors.BadRequest(fmt.Sprintf("unknown provider: %s", providerID))
	}
	if name == "" {
		return nil, errors.BadRequest("account name is required")
	}
	if len(creds) == 0 {
		return nil, errors.BadRequest("credentials are required")
	}

	ref := uuid.New().String()
	if err := s.creds.Store(ctx, ref, creds); err != nil {
		return nil, err
	}

	acct := &account.Account{
		UserID:         userID,
		ProviderID:     providerID,
		Name:           name,
		CredentialsRef: ref,
		CreatedAt:      time.Now().UTC(),
	}
	id, err := s.accounts.Create(ctx, acct)
	if err != nil {
		// Best effort; an orphaned sealed blob is unreachable anyway.
		_ = s.creds.Delete(ctx, ref)
		return nil, errors.DatabaseError("failed to create account", err)
	}
	acct.ID = id

	s.log.WithFields(map[string]interface{}{
		"account_id": id,
		"provider":   providerID,
	}).Info("account registered")
	return acct, nil
}

// Get retrieves one account.
func (s *AccountService) Get(ctx context.Context, id int64) (*account.Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, errors.NotFound("account")
	}
	return acct, nil
}

// List retrieves all accounts, optionally scoped to one user.
func (s *AccountService) List(ctx context.Context, userID int64) ([]*account.Account, error) {
	if userID > 0 {
		return s.accounts.ListByUser(ctx, userID)
	}
	return s.accounts.List(ctx)
}

// UpdateCredentials reseals an account's credentials under its existing
// reference.
func (s *AccountService) UpdateCredentials(ctx context.Context, id int64, creds providers.Credentials) error {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		return errors.BadRequest("credentials are required")
	}
	return s.creds.Store(ctx, acct.CredentialsRef, creds)
}

// Delete removes an account and everything derived from it.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.anomalies.DeleteByAccount(ctx, id); err != nil {
		return errors.DatabaseError("failed to delete anomaly events", err)
	}
	if err := s.baselines.DeleteByAccount(ctx, id); err != nil {
		return errors.DatabaseError("failed to delete baselines", err)
	}
	if err := s.snapshots.DeleteByAccount(ctx, id); err != nil {
		return errors.DatabaseError("failed to delete snapshots", err)
	}
	if err := s.creds.Delete(ctx, acct.CredentialsRef); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return errors.DatabaseError("failed to delete account", err)
	}
	s.cache.Invalidate(ctx, id, acct.ProviderID)

	s.log.WithFields(map[string]interface{}{"account_id": id}).Info("account deleted")
	return nil
}
