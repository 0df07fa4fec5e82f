package services

import (
	"context"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/testutil"
)

func TestSnapshotLatest(t *testing.T) {
	repo := testutil.NewMockSnapshotRepository()
	svc := NewSnapshotService(repo)

	repo.Upsert(context.Background(), &snapshot.NormalizedCostSnapshot{
		AccountID:        3,
		ProviderID:       "gcp",
		CurrentMonthCost: 42,
	})

	snap, err := svc.Latest(context.Background(), 3)
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if snap.CurrentMonthCost != 42 {
		t.Errorf("CurrentMonthCost = %v, want 42", snap.CurrentMonthCost)
	}
}

func TestSnapshotLatestMissing(t *testing.T) {
	svc := NewSnapshotService(testutil.NewMockSnapshotRepository())

	if _, err := svc.Latest(context.Background(), 3); err == nil {
		t.Fatal("missing snapshot did not error")
	} else if errors.Code(err) != errors.ErrCodeNotFound {
		t.Errorf("error code = %q, want NOT_FOUND", errors.Code(err))
	}
}

func TestSnapshotDailyCostsWindow(t *testing.T) {
	repo := testutil.NewMockSnapshotRepository()
	svc := NewSnapshotService(repo)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	repo.Upsert(context.Background(), &snapshot.NormalizedCostSnapshot{
		AccountID:  3,
		ProviderID: "gcp",
		DailyCosts: []snapshot.DailyCost{
			{Date: today.AddDate(0, 0, -10), Cost: 5},
			{Date: today.AddDate(0, 0, -2), Cost: 7},
			{Date: today.AddDate(0, 0, -1), Cost: 9},
		},
	})

	costs, err := svc.DailyCosts(context.Background(), 3, 7)
	if err != nil {
		t.Fatalf("DailyCosts returned error: %v", err)
	}
	if len(costs) != 2 {
		t.Fatalf("got %d days inside a 7-day window, want 2", len(costs))
	}
	if costs[0].Cost != 7 || costs[1].Cost != 9 {
		t.Errorf("costs = %v/%v, want 7/9", costs[0].Cost, costs[1].Cost)
	}
}
