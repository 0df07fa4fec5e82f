package providers

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// CredentialsProvider resolves the opaque authentication material for one
// account. Implementations must never log resolved values.
type CredentialsProvider interface {
	Resolve(ctx context.Context, acct *account.Account) (Credentials, error)
}

// SecretboxStore keeps provider credentials sealed with NaCl secretbox in
// the engine's own database, keyed by the account's CredentialsRef. The
// 32-byte master key comes from configuration and is the only secret the
// process holds in the clear.
type SecretboxStore struct {
	db  *sql.DB
	key [32]byte
}

// NewSecretboxStore opens a credentials store over an existing database
// handle. masterKeyHex must decode to exactly 32 bytes.
func NewSecretboxStore(db *sql.DB, masterKeyHex string) (*SecretboxStore, error) {
	raw, err := hex.DecodeString(masterKeyHex)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("credentials master key must be 32 hex-encoded bytes")
	}
	s := &SecretboxStore{db: db}
	copy(s.key[:], raw)
	return s, nil
}

// Resolve unseals the credentials referenced by the account.
func (s *SecretboxStore) Resolve(ctx context.Context, acct *account.Account) (Credentials, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT sealed FROM account_credentials WHERE ref = $1`, acct.CredentialsRef,
	).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, errors.AuthenticationError(acct.ProviderID,
			fmt.Errorf("no credentials stored for account %d", acct.ID))
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load credentials", err)
	}

	if len(sealed) < 24 {
		return nil, errors.AuthenticationError(acct.ProviderID, fmt.Errorf("sealed credentials too short"))
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.AuthenticationError(acct.ProviderID, fmt.Errorf("credentials unseal failed"))
	}

	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, errors.AuthenticationError(acct.ProviderID, fmt.Errorf("credentials decode failed"))
	}
	return creds, nil
}

// Store seals and persists credentials under ref, replacing any prior
// value.
func (s *SecretboxStore) Store(ctx context.Context, ref string, creds Credentials) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO account_credentials (ref, sealed) VALUES ($1, $2)
		ON CONFLICT (ref) DO UPDATE SET sealed = EXCLUDED.sealed`,
		ref, sealed)
	if err != nil {
		return errors.DatabaseError("failed to store credentials", err)
	}
	return nil
}

// Delete removes stored credentials for ref.
func (s *SecretboxStore) Delete(ctx context.Context, ref string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account_credentials WHERE ref = $1`, ref)
	if err != nil {
		return errors.DatabaseError("failed to delete credentials", err)
	}
	return nil
}
