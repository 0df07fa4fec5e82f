package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/domain/baseline"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/providers"
)

// MockAccountRepository is an in-memory account.Repository.
type MockAccountRepository struct {
	mu          sync.Mutex
	Accounts    map[int64]*account.Account
	NextID      int64
	CreateError error
	GetError    error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[int64]*account.Account),
		NextID:   1,
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	a.ID = m.NextID
	m.NextID++
	m.Accounts[a.ID] = a
	return a.ID, nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	a, ok := m.Accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*account.Account
	for id := int64(1); id < m.NextID; id++ {
		if a, ok := m.Accounts[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID int64) ([]*account.Account, error) {
	all, _ := m.List(ctx)
	var out []*account.Account
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) UpdateLastSyncedAt(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.LastSyncedAt = &at
	return nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Accounts, id)
	return nil
}

// MockSnapshotRepository is an in-memory snapshot.Repository.
type MockSnapshotRepository struct {
	mu          sync.Mutex
	Snapshots   map[int64]*snapshot.NormalizedCostSnapshot
	UpsertCalls int
	UpsertError error
}

func NewMockSnapshotRepository() *MockSnapshotRepository {
	return &MockSnapshotRepository{
		Snapshots: make(map[int64]*snapshot.NormalizedCostSnapshot),
	}
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, s *snapshot.NormalizedCostSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertError != nil {
		return m.UpsertError
	}
	m.Snapshots[s.AccountID] = s
	return nil
}

func (m *MockSnapshotRepository) GetLatest(ctx context.Context, accountID int64) (*snapshot.NormalizedCostSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Snapshots[accountID], nil
}

func (m *MockSnapshotRepository) GetDailyCosts(ctx context.Context, accountID int64, from, to time.Time) ([]snapshot.DailyCost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Snapshots[accountID]
	if !ok {
		return nil, nil
	}
	var out []snapshot.DailyCost
	for _, d := range s.DailyCosts {
		if !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockSnapshotRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Snapshots, accountID)
	return nil
}

// MockBaselineRepository is an in-memory baseline.Repository keyed by
// (account, provider, service).
type MockBaselineRepository struct {
	mu        sync.Mutex
	Baselines map[string]*baseline.AnomalyBaseline
}

func NewMockBaselineRepository() *MockBaselineRepository {
	return &MockBaselineRepository{
		Baselines: make(map[string]*baseline.AnomalyBaseline),
	}
}

func baselineKey(accountID int64, providerID, serviceName string) string {
	return fmt.Sprintf("%d/%s/%s", accountID, providerID, serviceName)
}

func (m *MockBaselineRepository) Get(ctx context.Context, accountID int64, providerID, serviceName string) (*baseline.AnomalyBaseline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Baselines[baselineKey(accountID, providerID, serviceName)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *MockBaselineRepository) GetAll(ctx context.Context, accountID int64, providerID string) (map[string]*baseline.AnomalyBaseline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*baseline.AnomalyBaseline)
	for _, b := range m.Baselines {
		if b.AccountID == accountID && b.ProviderID == providerID {
			cp := *b
			out[b.ServiceName] = &cp
		}
	}
	return out, nil
}

func (m *MockBaselineRepository) Upsert(ctx context.Context, b *baseline.AnomalyBaseline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.Baselines[baselineKey(b.AccountID, b.ProviderID, b.ServiceName)] = &cp
	return nil
}

func (m *MockBaselineRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.Baselines {
		if b.AccountID == accountID {
			delete(m.Baselines, k)
		}
	}
	return nil
}

// MockAnomalyRepository is an in-memory anomaly.Repository.
type MockAnomalyRepository struct {
	mu     sync.Mutex
	Events map[string]*anomaly.Event
}

func NewMockAnomalyRepository() *MockAnomalyRepository {
	return &MockAnomalyRepository{
		Events: make(map[string]*anomaly.Event),
	}
}

func (m *MockAnomalyRepository) Create(ctx context.Context, e *anomaly.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.Events[e.ID] = &cp
	return nil
}

func (m *MockAnomalyRepository) GetByID(ctx context.Context, id string) (*anomaly.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *MockAnomalyRepository) FindByKey(ctx context.Context, accountID int64, providerID, serviceName string, date time.Time) (*anomaly.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := date.UTC().Truncate(24 * time.Hour)
	for _, e := range m.Events {
		if e.AccountID == accountID && e.ProviderID == providerID &&
			e.ServiceName == serviceName && e.DetectedDate.Equal(day) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockAnomalyRepository) Update(ctx context.Context, e *anomaly.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Events[e.ID]; !ok {
		return fmt.Errorf("anomaly event not found")
	}
	cp := *e
	m.Events[e.ID] = &cp
	return nil
}

func (m *MockAnomalyRepository) ListWithPagination(ctx context.Context, filter anomaly.Filter, limit, offset int) ([]*anomaly.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*anomaly.Event
	for _, e := range m.Events {
		if filter.AccountID > 0 && e.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != "" && e.ResolutionStatus != filter.Status {
			continue
		}
		if filter.Severity != "" && e.Severity != filter.Severity {
			continue
		}
		if filter.Type != "" && e.AnomalyType != filter.Type {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockAnomalyRepository) CountConsecutiveDeviant(ctx context.Context, accountID int64, providerID, serviceName, anomalyType string, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	day := date.UTC().Truncate(24 * time.Hour)
	for {
		day = day.AddDate(0, 0, -1)
		found := false
		for _, e := range m.Events {
			if e.AccountID == accountID && e.ProviderID == providerID &&
				e.ServiceName == serviceName && e.DetectedDate.Equal(day) &&
				(e.AnomalyType == anomalyType || e.AnomalyType == anomaly.TypeTrend) {
				found = true
				break
			}
		}
		if !found {
			return count, nil
		}
		count++
	}
}

func (m *MockAnomalyRepository) CountBySeverity(ctx context.Context, accountID int64) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range m.Events {
		if e.AccountID == accountID && e.ResolutionStatus == anomaly.StatusOpen {
			counts[e.Severity]++
		}
	}
	return counts, nil
}

func (m *MockAnomalyRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.Events {
		if e.AccountID == accountID {
			delete(m.Events, id)
		}
	}
	return nil
}

// Open returns the open events, handy for assertions.
func (m *MockAnomalyRepository) Open() []*anomaly.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*anomaly.Event
	for _, e := range m.Events {
		if e.ResolutionStatus == anomaly.StatusOpen {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

// MockFetcher is a providers.Fetcher returning a canned payload or error.
type MockFetcher struct {
	Provider   string
	Payload    interface{}
	Err        error
	FetchCalls int
	mu         sync.Mutex
}

func (m *MockFetcher) ProviderID() string { return m.Provider }

func (m *MockFetcher) Fetch(ctx context.Context, acct *account.Account, creds providers.Credentials) (json.RawMessage, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return json.Marshal(m.Payload)
}

// Calls returns how many times Fetch ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCalls
}

// MockCredentials is a providers.CredentialsProvider returning fixed values.
type MockCredentials struct {
	Creds providers.Credentials
	Err   error
}

func (m *MockCredentials) Resolve(ctx context.Context, acct *account.Account) (providers.Credentials, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Creds, nil
}
