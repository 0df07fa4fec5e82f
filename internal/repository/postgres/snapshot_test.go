package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/testutil"
)

func fixtureSnapshot(accountID int64, fetchedAt time.Time) *snapshot.NormalizedCostSnapshot {
	return &snapshot.NormalizedCostSnapshot{
		AccountID:        accountID,
		ProviderID:       "aws",
		PeriodStart:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CurrentMonthCost: 120,
		LastMonthCost:    200,
		ForecastCost:     240,
		Credits:          3,
		Savings:          1.5,
		Services: []snapshot.ServiceCost{
			{Name: "Amazon EC2", Cost: 90, ChangePct: 12.5},
			{Name: "Amazon S3", Cost: 30, ChangePct: -2},
		},
		DailyCosts: []snapshot.DailyCost{
			{Date: time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), Cost: 9},
			{Date: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), Cost: 11},
		},
		FetchedAt: fetchedAt,
	}
}

func TestSnapshotRepositoryRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	fetched := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	if err := repo.Upsert(ctx, fixtureSnapshot(1, fetched)); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	got, err := repo.GetLatest(ctx, 1)
	if err != nil {
		t.Fatalf("GetLatest returned error: %v", err)
	}
	if got == nil {
		t.Fatal("GetLatest returned nil")
	}
	if got.CurrentMonthCost != 120 || got.LastMonthCost != 200 || got.ForecastCost != 240 {
		t.Errorf("totals = %v/%v/%v", got.CurrentMonthCost, got.LastMonthCost, got.ForecastCost)
	}
	if len(got.Services) != 2 || got.Services[0].Name != "Amazon EC2" || got.Services[0].ChangePct != 12.5 {
		t.Errorf("services = %+v", got.Services)
	}
	if len(got.DailyCosts) != 2 || got.DailyCosts[1].Cost != 11 {
		t.Errorf("daily costs = %+v", got.DailyCosts)
	}
}

func TestSnapshotRepositoryUpsertReplacesSamePeriod(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	first := fixtureSnapshot(1, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	second := fixtureSnapshot(1, time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC))
	second.CurrentMonthCost = 135
	second.DailyCosts[1].Cost = 12 // June 14 restated on re-sync
	second.DailyCosts = append(second.DailyCosts,
		snapshot.DailyCost{Date: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), Cost: 15})
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := repo.GetLatest(ctx, 1)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got.CurrentMonthCost != 135 {
		t.Errorf("CurrentMonthCost = %v, want replacement 135", got.CurrentMonthCost)
	}
	if len(got.DailyCosts) != 3 {
		t.Errorf("daily rows = %d, want 3 after re-sync", len(got.DailyCosts))
	}
	for _, dc := range got.DailyCosts {
		if dc.Date.Equal(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)) && dc.Cost != 12 {
			t.Errorf("restated day cost = %v, want replacement 12", dc.Cost)
		}
	}

	var dayRows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM daily_costs
		WHERE account_id = 1 AND provider_id = 'aws' AND date = $1`,
		time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)).Scan(&dayRows); err != nil {
		t.Fatalf("count daily rows: %v", err)
	}
	if dayRows != 1 {
		t.Errorf("rows for restated day = %d, want 1 per (account, provider, date)", dayRows)
	}

	var headers int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cost_snapshots WHERE account_id = 1`).Scan(&headers); err != nil {
		t.Fatalf("count headers: %v", err)
	}
	if headers != 1 {
		t.Errorf("header rows = %d, want 1 per (account, period)", headers)
	}
}

func TestSnapshotRepositoryGetLatestMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSnapshotRepository(db)

	got, err := repo.GetLatest(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetLatest returned error: %v", err)
	}
	if got != nil {
		t.Errorf("GetLatest = %+v, want nil", got)
	}
}

func TestSnapshotRepositoryDailyCostRange(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	snap := fixtureSnapshot(1, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	snap.DailyCosts = nil
	for d := 1; d <= 14; d++ {
		snap.DailyCosts = append(snap.DailyCosts, snapshot.DailyCost{
			Date: time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC),
			Cost: float64(d),
		})
	}
	if err := repo.Upsert(ctx, snap); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	costs, err := repo.GetDailyCosts(ctx, 1,
		time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetDailyCosts returned error: %v", err)
	}
	if len(costs) != 6 {
		t.Fatalf("got %d days, want 6", len(costs))
	}
	for i := 1; i < len(costs); i++ {
		if costs[i].Date.Before(costs[i-1].Date) {
			t.Fatal("daily costs not sorted by date")
		}
	}
}

func TestSnapshotRepositoryDeleteByAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, fixtureSnapshot(1, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	other := fixtureSnapshot(2, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))
	if err := repo.Upsert(ctx, other); err != nil {
		t.Fatalf("Upsert other: %v", err)
	}

	if err := repo.DeleteByAccount(ctx, 1); err != nil {
		t.Fatalf("DeleteByAccount returned error: %v", err)
	}

	if got, _ := repo.GetLatest(ctx, 1); got != nil {
		t.Error("snapshot survived account deletion")
	}
	if got, _ := repo.GetLatest(ctx, 2); got == nil {
		t.Error("unrelated account's snapshot deleted")
	}
}
