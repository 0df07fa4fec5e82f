package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/testutil"
)

var anomalyDay = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func fixtureEvent(id string, day time.Time) *anomaly.Event {
	return &anomaly.Event{
		ID:              id,
		AccountID:       1,
		ProviderID:      "aws",
		ServiceName:     "Amazon EC2",
		DetectedDate:    day,
		AnomalyType:     anomaly.TypeSpike,
		Severity:        anomaly.SeverityHigh,
		ExpectedCost:    100,
		ActualCost:      250,
		VariancePercent: 150,
		ContributingServices: []anomaly.ContributingService{
			{Name: "Amazon EC2", Delta: 150, CurrentCost: 250},
		},
		ResolutionStatus: anomaly.StatusOpen,
		CreatedAt:        day.Add(9 * time.Hour),
	}
}

func TestAnomalyRepositoryRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, fixtureEvent("ev-1", anomalyDay)); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, "ev-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}
	if got.AnomalyType != anomaly.TypeSpike || got.Severity != anomaly.SeverityHigh {
		t.Errorf("classification = (%s, %s)", got.AnomalyType, got.Severity)
	}
	if got.ExpectedCost != 100 || got.ActualCost != 250 || got.VariancePercent != 150 {
		t.Errorf("magnitudes = %v/%v/%v", got.ExpectedCost, got.ActualCost, got.VariancePercent)
	}
	if len(got.ContributingServices) != 1 || got.ContributingServices[0].Delta != 150 {
		t.Errorf("contributors = %+v", got.ContributingServices)
	}

	if missing, err := repo.GetByID(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("GetByID(missing) = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestAnomalyRepositoryFindByKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, fixtureEvent("ev-1", anomalyDay)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.FindByKey(ctx, 1, "aws", "Amazon EC2", anomalyDay)
	if err != nil {
		t.Fatalf("FindByKey returned error: %v", err)
	}
	if got == nil || got.ID != "ev-1" {
		t.Fatalf("FindByKey = %+v, want ev-1", got)
	}

	if miss, _ := repo.FindByKey(ctx, 1, "aws", "Amazon S3", anomalyDay); miss != nil {
		t.Error("FindByKey matched the wrong service")
	}
	if miss, _ := repo.FindByKey(ctx, 1, "aws", "Amazon EC2", anomalyDay.AddDate(0, 0, 1)); miss != nil {
		t.Error("FindByKey matched the wrong day")
	}
}

func TestAnomalyRepositoryUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	ev := fixtureEvent("ev-1", anomalyDay)
	if err := repo.Create(ctx, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ev.ResolutionStatus = anomaly.StatusAcknowledged
	ev.ActualCost = 300
	ev.UpdatedAt = anomalyDay.Add(12 * time.Hour)
	if err := repo.Update(ctx, ev); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got, _ := repo.GetByID(ctx, "ev-1")
	if got.ResolutionStatus != anomaly.StatusAcknowledged || got.ActualCost != 300 {
		t.Errorf("updated event = %+v", got)
	}

	ghost := fixtureEvent("ghost", anomalyDay)
	if err := repo.Update(ctx, ghost); err == nil {
		t.Error("Update of a missing event did not error")
	}
}

func TestAnomalyRepositoryListWithPagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := fixtureEvent(fmt.Sprintf("ev-%d", i), anomalyDay.AddDate(0, 0, -i))
		if i%2 == 1 {
			ev.Severity = anomaly.SeverityLow
			ev.ResolutionStatus = anomaly.StatusResolved
		}
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	all, total, err := repo.ListWithPagination(ctx, anomaly.Filter{AccountID: 1}, 3, 0)
	if err != nil {
		t.Fatalf("ListWithPagination returned error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(all) != 3 {
		t.Fatalf("page size = %d, want 3", len(all))
	}
	// Newest detection first.
	if all[0].ID != "ev-0" || all[1].ID != "ev-1" {
		t.Errorf("order = %s, %s", all[0].ID, all[1].ID)
	}

	rest, _, err := repo.ListWithPagination(ctx, anomaly.Filter{AccountID: 1}, 3, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("second page size = %d, want 2", len(rest))
	}

	open, total, err := repo.ListWithPagination(ctx, anomaly.Filter{
		AccountID: 1,
		Status:    anomaly.StatusOpen,
		Severity:  anomaly.SeverityHigh,
	}, 10, 0)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 3 || len(open) != 3 {
		t.Errorf("filtered = (%d, %d), want 3 open high events", total, len(open))
	}
}

func TestAnomalyRepositoryCountConsecutiveDeviant(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	// Spike two days back, trend yesterday, gap three days back.
	for i, typ := range map[int]string{1: anomaly.TypeTrend, 2: anomaly.TypeSpike} {
		ev := fixtureEvent(fmt.Sprintf("ev-%d", i), anomalyDay.AddDate(0, 0, -i))
		ev.AnomalyType = typ
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	// Trend rows extend a spike streak.
	n, err := repo.CountConsecutiveDeviant(ctx, 1, "aws", "Amazon EC2", anomaly.TypeSpike, anomalyDay)
	if err != nil {
		t.Fatalf("CountConsecutiveDeviant returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("streak = %d, want 2", n)
	}

	// A drop streak does not see spike events.
	n, err = repo.CountConsecutiveDeviant(ctx, 1, "aws", "Amazon EC2", anomaly.TypeDrop, anomalyDay)
	if err != nil {
		t.Fatalf("CountConsecutiveDeviant returned error: %v", err)
	}
	if n != 1 {
		// Only the trend row counts for any direction.
		t.Errorf("drop streak = %d, want 1", n)
	}

	n, err = repo.CountConsecutiveDeviant(ctx, 99, "aws", "Amazon EC2", anomaly.TypeSpike, anomalyDay)
	if err != nil {
		t.Fatalf("CountConsecutiveDeviant returned error: %v", err)
	}
	if n != 0 {
		t.Errorf("streak for unknown account = %d, want 0", n)
	}
}

func TestAnomalyRepositoryCountBySeverity(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnomalyRepository(db)
	ctx := context.Background()

	specs := []struct {
		severity string
		status   string
	}{
		{anomaly.SeverityHigh, anomaly.StatusOpen},
		{anomaly.SeverityHigh, anomaly.StatusOpen},
		{anomaly.SeverityLow, anomaly.StatusOpen},
		{anomaly.SeverityCritical, anomaly.StatusResolved},
	}
	for i, spec := range specs {
		ev := fixtureEvent(fmt.Sprintf("ev-%d", i), anomalyDay.AddDate(0, 0, -i))
		ev.Severity = spec.severity
		ev.ResolutionStatus = spec.status
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	counts, err := repo.CountBySeverity(ctx, 1)
	if err != nil {
		t.Fatalf("CountBySeverity returned error: %v", err)
	}
	if counts[anomaly.SeverityHigh] != 2 || counts[anomaly.SeverityLow] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if counts[anomaly.SeverityCritical] != 0 {
		t.Error("resolved events counted as open")
	}
}
