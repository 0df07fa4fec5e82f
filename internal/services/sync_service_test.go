package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/cache"
	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/syncrun"
	apperrors "github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/providers"
	"github.com/costpulse/costpulse/internal/testutil"
)

// awsPayload is a minimal Cost Explorer response the aws adapter accepts.
var awsPayload = map[string]interface{}{
	"ResultsByTime": []map[string]interface{}{
		{
			"TimePeriod": map[string]string{"Start": "2025-06-14", "End": "2025-06-15"},
			"Groups": []map[string]interface{}{
				{
					"Keys":    []string{"Amazon EC2"},
					"Metrics": map[string]interface{}{"UnblendedCost": map[string]string{"Amount": "30.00", "Unit": "USD"}},
				},
			},
		},
	},
}

type syncFixture struct {
	accounts *testutil.MockAccountRepository
	snaps    *testutil.MockSnapshotRepository
	anomrepo *testutil.MockAnomalyRepository
	fetcher  *testutil.MockFetcher
	svc      *SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	accounts := testutil.NewMockAccountRepository()
	snaps := testutil.NewMockSnapshotRepository()
	baserepo := testutil.NewMockBaselineRepository()
	anomrepo := testutil.NewMockAnomalyRepository()
	fetcher := &testutil.MockFetcher{Provider: account.ProviderAWS, Payload: awsPayload}

	log := testLogger()
	engine := NewBaselineEngine(baserepo, 14, 7, log)
	detector := NewAnomalyDetector(anomrepo, testPolicy(), nil, log)

	cfg := config.SyncConfig{
		Concurrency:  4,
		Deadline:     30 * time.Second,
		FetchTimeout: 10 * time.Second,
		CacheTTL:     time.Hour,
	}
	svc := NewSyncService(
		accounts,
		snaps,
		&testutil.MockCredentials{Creds: providers.Credentials{"access_key_id": "AKIA", "secret_access_key": "shh"}},
		providers.NewStaticRegistry(fetcher),
		cache.NewMemoryCache(),
		engine,
		detector,
		cfg,
		log,
	)
	// Pin the clock so the payload's June dates land in the current month.
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return &syncFixture{accounts: accounts, snaps: snaps, anomrepo: anomrepo, fetcher: fetcher, svc: svc}
}

func (f *syncFixture) addAccount(t *testing.T, providerID, name string) int64 {
	t.Helper()
	id, err := f.accounts.Create(context.Background(), &account.Account{
		ProviderID:     providerID,
		Name:           name,
		CredentialsRef: "ref-" + name,
	})
	if err != nil {
		t.Fatalf("Create account: %v", err)
	}
	return id
}

func TestSyncAccountSuccess(t *testing.T) {
	f := newSyncFixture(t)
	id := f.addAccount(t, account.ProviderAWS, "prod")

	res := f.svc.SyncAccount(context.Background(), id)

	if res.Status != syncrun.StatusSuccess {
		t.Fatalf("status = %q (error %+v), want success", res.Status, res.Error)
	}
	if res.ProviderID != account.ProviderAWS {
		t.Errorf("provider = %q, want aws", res.ProviderID)
	}
	if f.snaps.UpsertCalls != 1 {
		t.Errorf("snapshot upserts = %d, want 1", f.snaps.UpsertCalls)
	}
	acct, _ := f.accounts.GetByID(context.Background(), id)
	if acct.LastSyncedAt == nil {
		t.Error("LastSyncedAt not stamped after successful sync")
	}
}

func TestSyncAccountCacheSkip(t *testing.T) {
	f := newSyncFixture(t)
	id := f.addAccount(t, account.ProviderAWS, "prod")

	first := f.svc.SyncAccount(context.Background(), id)
	if first.Status != syncrun.StatusSuccess {
		t.Fatalf("first sync status = %q", first.Status)
	}

	second := f.svc.SyncAccount(context.Background(), id)
	if second.Status != syncrun.StatusSkipped || !second.FromCache {
		t.Errorf("second sync = {status %q, fromCache %v}, want skipped from cache",
			second.Status, second.FromCache)
	}
	if f.fetcher.Calls() != 1 {
		t.Errorf("fetch ran %d times, want 1 (second sync served from cache)", f.fetcher.Calls())
	}
}

func TestSyncAccountNotFound(t *testing.T) {
	f := newSyncFixture(t)

	res := f.svc.SyncAccount(context.Background(), 999)
	if res.Status != syncrun.StatusFailure {
		t.Fatalf("status = %q, want failure", res.Status)
	}
	if res.Error == nil || res.Error.Code != apperrors.ErrCodeNotFound {
		t.Errorf("error = %+v, want code NOT_FOUND", res.Error)
	}
}

func TestSyncAccountFetchFailure(t *testing.T) {
	f := newSyncFixture(t)
	id := f.addAccount(t, account.ProviderAWS, "prod")
	f.fetcher.Err = apperrors.AuthenticationError(account.ProviderAWS, errors.New("expired token"))

	res := f.svc.SyncAccount(context.Background(), id)
	if res.Status != syncrun.StatusFailure {
		t.Fatalf("status = %q, want failure", res.Status)
	}
	if res.Error.Code != apperrors.ErrCodeProviderAuth {
		t.Errorf("error code = %q, want PROVIDER_AUTH_ERROR", res.Error.Code)
	}
	if f.snaps.UpsertCalls != 0 {
		t.Errorf("snapshot upserted despite fetch failure")
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	f := newSyncFixture(t)
	f.addAccount(t, account.ProviderAWS, "a")
	badID := f.addAccount(t, account.ProviderVercel, "b") // no fetcher registered
	f.addAccount(t, account.ProviderAWS, "c")

	summary, err := f.svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}

	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = {total %d, ok %d, failed %d}, want {3, 2, 1}",
			summary.Total, summary.Succeeded, summary.Failed)
	}
	for _, r := range summary.Results {
		if r.AccountID == badID && r.Status != syncrun.StatusFailure {
			t.Errorf("unknown-provider account status = %q, want failure", r.Status)
		}
		if r.AccountID != badID && r.Status != syncrun.StatusSuccess {
			t.Errorf("account %d status = %q, want success", r.AccountID, r.Status)
		}
	}
}

func TestSyncAccountSingleflight(t *testing.T) {
	f := newSyncFixture(t)
	id := f.addAccount(t, account.ProviderAWS, "prod")

	var wg sync.WaitGroup
	results := make([]*syncrun.Result, 8)
	for i := 0; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.SyncAccount(context.Background(), id)
		}(i)
	}
	wg.Wait()

	// All callers either share the one in-flight run or, when they arrive
	// after it completed, hit the cache it warmed. Either way the upstream
	// is hit exactly once.
	if f.fetcher.Calls() != 1 {
		t.Errorf("fetch ran %d times, want 1 across concurrent syncs", f.fetcher.Calls())
	}
	successes := 0
	for i, r := range results {
		switch r.Status {
		case syncrun.StatusSuccess:
			successes++
		case syncrun.StatusSkipped:
			if !r.FromCache {
				t.Errorf("caller %d skipped but not from cache", i)
			}
		default:
			t.Errorf("caller %d got status %q", i, r.Status)
		}
	}
	if successes == 0 {
		t.Error("no caller observed the shared in-flight result")
	}
}

func TestSyncDetectsAnomalyAgainstPriorBaseline(t *testing.T) {
	f := newSyncFixture(t)
	id := f.addAccount(t, account.ProviderAWS, "prod")

	// Warm baseline keyed by the adapter's service name: the payload puts 30.00
	// month-to-date on "Amazon EC2", so the day-15 sample is 2.00 against a
	// learned 0.50 per day.
	base := warmBaseline("Amazon EC2", 0.5)
	base.AccountID = id
	f.svc.baselines.repo.Upsert(context.Background(), base)

	res := f.svc.SyncAccount(context.Background(), id)
	if res.Status != syncrun.StatusSuccess {
		t.Fatalf("status = %q (error %+v)", res.Status, res.Error)
	}
	if res.AnomaliesFound == 0 {
		t.Error("expected at least one anomaly against the warm baseline")
	}
	open := f.anomrepo.Open()
	if len(open) == 0 {
		t.Fatal("no open anomaly events recorded")
	}
	found := false
	for _, ev := range open {
		if ev.ServiceName == "Amazon EC2" {
			found = true
		}
	}
	if !found {
		t.Errorf("no open event for Amazon EC2, got %d other events", len(open))
	}
}
