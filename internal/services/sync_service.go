package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/costpulse/costpulse/internal/adapters"
	"github.com/costpulse/costpulse/internal/cache"
	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/domain/syncrun"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/metrics"
	"github.com/costpulse/costpulse/internal/providers"
)

// SyncService orchestrates the fetch, normalize, persist and detect pipeline
// for cloud accounts. Accounts sync in parallel under a concurrency bound;
// one account failing never aborts the others.
type SyncService struct {
	accounts  account.Repository
	snapshots snapshot.Repository
	creds     providers.CredentialsProvider
	fetchers  *providers.Registry
	cache     cache.SnapshotCache
	baselines *BaselineEngine
	detector  *AnomalyDetector
	cfg       config.SyncConfig
	log       *logger.Logger

	// flight collapses concurrent syncs of the same account into one run
	flight singleflight.Group

	// now is replaceable in tests
	now func() time.Time
}

// NewSyncService wires the sync pipeline.
func NewSyncService(
	accounts account.Repository,
	snapshots snapshot.Repository,
	creds providers.CredentialsProvider,
	fetchers *providers.Registry,
	snapCache cache.SnapshotCache,
	baselines *BaselineEngine,
	detector *AnomalyDetector,
	cfg config.SyncConfig,
	log *logger.Logger,
) *SyncService {
	return &SyncService{
		accounts:  accounts,
		snapshots: snapshots,
		creds:     creds,
		fetchers:  fetchers,
		cache:     snapCache,
		baselines: baselines,
		detector:  detector,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SyncAll syncs every registered account with bounded parallelism and
// returns the aggregated per-account outcomes.
func (s *SyncService) SyncAll(ctx context.Context) (*syncrun.Summary, error) {
	accts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, errors.DatabaseError("failed to list accounts", err)
	}

	results := make([]*syncrun.Result, len(accts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, acct := range accts {
		g.Go(func() error {
			results[i] = s.SyncAccount(gctx, acct.ID)
			return nil
		})
	}
	// Worker funcs never return errors; failures live in the results.
	_ = g.Wait()

	summary := syncrun.Summarize(results)
	s.log.WithFields(map[string]interface{}{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("sync batch finished")
	return summary, nil
}

// SyncAccount syncs one account end to end. Concurrent calls for the same
// account share a single run; the outcome never escapes as an error, it is
// encoded in the result.
func (s *SyncService) SyncAccount(ctx context.Context, accountID int64) *syncrun.Result {
	v, _, _ := s.flight.Do(strconv.FormatInt(accountID, 10), func() (interface{}, error) {
		return s.syncOne(ctx, accountID), nil
	})
	return v.(*syncrun.Result)
}

func (s *SyncService) syncOne(ctx context.Context, accountID int64) *syncrun.Result {
	start := s.now()
	res := &syncrun.Result{AccountID: accountID}

	err := s.runPipeline(ctx, accountID, res)
	res.Duration = s.now().Sub(start)

	switch {
	case err != nil:
		res.Status = syncrun.StatusFailure
		res.Error = &syncrun.Error{Code: errors.Code(err), Message: err.Error()}
		s.log.WithFields(map[string]interface{}{
			"account_id": accountID,
			"provider":   res.ProviderID,
			"code":       res.Error.Code,
		}).ErrorWithErr(err, "account sync failed")
	case res.FromCache:
		res.Status = syncrun.StatusSkipped
	default:
		res.Status = syncrun.StatusSuccess
	}
	metrics.RecordSync(res.ProviderID, res.Status, res.Duration)
	return res
}

// runPipeline executes cache check, fetch, normalize, persist, detect and
// baseline fold for one account. Detection runs against the baselines as
// they stood before this run's samples were folded in.
func (s *SyncService) runPipeline(ctx context.Context, accountID int64, res *syncrun.Result) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return errors.DatabaseError("failed to load account", err)
	}
	if acct == nil {
		return errors.NotFound("account")
	}
	res.ProviderID = acct.ProviderID

	if _, ok := s.cache.Get(ctx, acct.ID, acct.ProviderID); ok {
		metrics.RecordCacheHit(acct.ProviderID)
		res.FromCache = true
		return nil
	}
	metrics.RecordCacheMiss(acct.ProviderID)

	fetcher, ok := s.fetchers.ForProvider(acct.ProviderID)
	if !ok {
		return errors.BadRequest(fmt.Sprintf("unknown provider: %s", acct.ProviderID))
	}
	adapter, ok := adapters.ForProvider(acct.ProviderID)
	if !ok {
		return errors.BadRequest(fmt.Sprintf("unknown provider: %s", acct.ProviderID))
	}

	creds, err := s.creds.Resolve(ctx, acct)
	if err != nil {
		return err
	}

	fetchCtx, cancelFetch := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	raw, err := fetcher.Fetch(fetchCtx, acct, creds)
	cancelFetch()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	snap, err := adapter.Normalize(acct.ID, raw, now)
	if err != nil {
		return err
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return errors.DatabaseError("failed to persist snapshot", err)
	}

	baselines, err := s.baselines.Load(ctx, acct.ID, acct.ProviderID)
	if err != nil {
		return err
	}
	samples := s.baselines.Samples(snap, now)

	events, err := s.detector.Detect(ctx, snap, baselines, samples, now)
	if err != nil {
		return err
	}
	res.AnomaliesFound = len(events)

	if err := s.baselines.Fold(ctx, acct.ID, acct.ProviderID, baselines, samples, now); err != nil {
		return err
	}

	s.cache.Set(ctx, snap, s.cfg.CacheTTL)

	if err := s.accounts.UpdateLastSyncedAt(ctx, acct.ID, now); err != nil {
		return errors.DatabaseError("failed to stamp sync time", err)
	}
	return nil
}
