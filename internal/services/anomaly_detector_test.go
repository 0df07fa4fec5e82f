package services

import (
	"context"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/domain/baseline"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/testutil"
)

var detectNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func warmBaseline(name string, mean float64) *baseline.AnomalyBaseline {
	return &baseline.AnomalyBaseline{
		AccountID:   1,
		ProviderID:  "aws",
		ServiceName: name,
		Mean:        mean,
		StdDev:      mean * 0.05,
		SampleCount: 30,
		LastUpdated: detectNow.AddDate(0, 0, -1),
	}
}

func detectSnapshot() *snapshot.NormalizedCostSnapshot {
	return &snapshot.NormalizedCostSnapshot{
		AccountID:  1,
		ProviderID: "aws",
		Services: []snapshot.ServiceCost{
			{Name: "EC2", Cost: 150, ChangePct: 50},
			{Name: "S3", Cost: 20, ChangePct: 10},
		},
	}
}

func newTestDetector(repo anomaly.Repository) *AnomalyDetector {
	return NewAnomalyDetector(repo, testPolicy(), nil, testLogger())
}

func TestDetectColdBaselineSuppressed(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	baselines := map[string]*baseline.AnomalyBaseline{
		"EC2": {AccountID: 1, ProviderID: "aws", ServiceName: "EC2", Mean: 10, SampleCount: 3},
	}
	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 100}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("cold baseline produced %d events, want 0", len(events))
	}
}

func TestDetectMissingBaselineSuppressed(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	events, err := d.Detect(context.Background(), detectSnapshot(), map[string]*baseline.AnomalyBaseline{}, map[string]float64{"EC2": 100}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("missing baseline produced %d events, want 0", len(events))
	}
}

func TestDetectBelowThresholdIgnored(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}
	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 115}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("15%% deviation produced %d events, want 0", len(events))
	}
}

func TestDetectSpikeSeverities(t *testing.T) {
	tests := []struct {
		actual       float64
		wantSeverity string
	}{
		{125, anomaly.SeverityLow},      // +25%
		{175, anomaly.SeverityMedium},   // +75%
		{250, anomaly.SeverityHigh},     // +150%
		{400, anomaly.SeverityCritical}, // +300%
	}
	for _, tt := range tests {
		repo := testutil.NewMockAnomalyRepository()
		d := newTestDetector(repo)
		baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}

		events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": tt.actual}, detectNow)
		if err != nil {
			t.Fatalf("Detect(%v) returned error: %v", tt.actual, err)
		}
		if len(events) != 1 {
			t.Fatalf("Detect(%v) produced %d events, want 1", tt.actual, len(events))
		}
		ev := events[0]
		if ev.AnomalyType != anomaly.TypeSpike {
			t.Errorf("actual %v: type = %q, want spike", tt.actual, ev.AnomalyType)
		}
		if ev.Severity != tt.wantSeverity {
			t.Errorf("actual %v: severity = %q, want %q", tt.actual, ev.Severity, tt.wantSeverity)
		}
		if ev.ExpectedCost != 100 || ev.ActualCost != tt.actual {
			t.Errorf("actual %v: costs = (%v, %v)", tt.actual, ev.ExpectedCost, ev.ActualCost)
		}
		if ev.ResolutionStatus != anomaly.StatusOpen {
			t.Errorf("new event status = %q, want open", ev.ResolutionStatus)
		}
	}
}

func TestDetectDrop(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)
	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}

	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 40}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.AnomalyType != anomaly.TypeDrop {
		t.Errorf("type = %q, want drop", ev.AnomalyType)
	}
	if ev.VariancePercent != -60 {
		t.Errorf("variance = %v, want -60", ev.VariancePercent)
	}
	// Severity is classified on magnitude, so a -60% drop is medium.
	if ev.Severity != anomaly.SeverityMedium {
		t.Errorf("severity = %q, want medium", ev.Severity)
	}
}

func TestDetectSpikeBecomesTrend(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	// Spikes on the two preceding days; TrendDays is 3.
	for i := 1; i <= 2; i++ {
		repo.Create(context.Background(), &anomaly.Event{
			ID:               "prior-" + string(rune('0'+i)),
			AccountID:        1,
			ProviderID:       "aws",
			ServiceName:      "EC2",
			DetectedDate:     detectNow.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -i),
			AnomalyType:      anomaly.TypeSpike,
			Severity:         anomaly.SeverityLow,
			ResolutionStatus: anomaly.StatusOpen,
		})
	}

	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}
	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 130}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].AnomalyType != anomaly.TypeTrend {
		t.Errorf("type = %q, want trend after 3 consecutive deviant days", events[0].AnomalyType)
	}
}

func TestDetectDropNeverTrends(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	for i := 1; i <= 2; i++ {
		repo.Create(context.Background(), &anomaly.Event{
			ID:               "prior-" + string(rune('0'+i)),
			AccountID:        1,
			ProviderID:       "aws",
			ServiceName:      "EC2",
			DetectedDate:     detectNow.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -i),
			AnomalyType:      anomaly.TypeDrop,
			Severity:         anomaly.SeverityLow,
			ResolutionStatus: anomaly.StatusOpen,
		})
	}

	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}
	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 40}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].AnomalyType != anomaly.TypeDrop {
		t.Errorf("type = %q, want drop (drops never become trends)", events[0].AnomalyType)
	}
}

func TestDetectDedupeRefreshesOpenEvent(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)
	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}

	first, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 150}, detectNow)
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}
	second, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 180}, detectNow.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}

	if len(repo.Events) != 1 {
		t.Fatalf("repo holds %d events, want 1 after same-day re-detection", len(repo.Events))
	}
	if second[0].ID != first[0].ID {
		t.Error("re-detection created a new event instead of refreshing")
	}
	if second[0].ActualCost != 180 {
		t.Errorf("refreshed actual cost = %v, want 180", second[0].ActualCost)
	}
	// Severity is pinned at creation time and not re-escalated.
	if second[0].Severity != first[0].Severity {
		t.Errorf("severity changed on refresh: %q -> %q", first[0].Severity, second[0].Severity)
	}
}

func TestDetectDedupeSkipsResolvedEvent(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)
	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}

	first, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 150}, detectNow)
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}

	resolved := *first[0]
	resolved.ResolutionStatus = anomaly.StatusFalsePositive
	if err := repo.Update(context.Background(), &resolved); err != nil {
		t.Fatalf("Update: %v", err)
	}

	second, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 200}, detectNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("re-detection touched a non-open event, got %d events", len(second))
	}
	got, _ := repo.GetByID(context.Background(), first[0].ID)
	if got.ActualCost != 150 {
		t.Errorf("resolved event was modified: actual = %v", got.ActualCost)
	}
}

func TestDetectTotalContributors(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)

	snap := &snapshot.NormalizedCostSnapshot{
		AccountID:  1,
		ProviderID: "aws",
		Services: []snapshot.ServiceCost{
			// previous = cost / (1 + pct/100): deltas are +5, +150, +40.
			{Name: "S3", Cost: 105, ChangePct: 5},
			{Name: "EC2", Cost: 300, ChangePct: 100},
			{Name: "RDS", Cost: 120, ChangePct: 50},
			{Name: "Lambda", Cost: 45, ChangePct: -10}, // shrinking, excluded
			{Name: snapshot.OtherServiceName, Cost: 8, ChangePct: 60},
		},
	}
	baselines := map[string]*baseline.AnomalyBaseline{
		baseline.TotalServiceName: {
			AccountID: 1, ProviderID: "aws", ServiceName: baseline.TotalServiceName,
			Mean: 10, SampleCount: 30,
		},
	}
	events, err := d.Detect(context.Background(), snap, baselines, map[string]float64{baseline.TotalServiceName: 20}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	contrib := events[0].ContributingServices
	if len(contrib) != 3 {
		t.Fatalf("got %d contributors, want 3: %+v", len(contrib), contrib)
	}
	wantOrder := []string{"EC2", "RDS", "S3"}
	for i, want := range wantOrder {
		if contrib[i].Name != want {
			t.Errorf("contributor[%d] = %q, want %q", i, contrib[i].Name, want)
		}
	}
	if contrib[0].Delta < 149 || contrib[0].Delta > 151 {
		t.Errorf("top contributor delta = %v, want ~150", contrib[0].Delta)
	}
}

func TestDetectTotalContributorsCapped(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	policy := testPolicy()
	policy.TopContributors = 2
	d := NewAnomalyDetector(repo, policy, nil, testLogger())

	snap := &snapshot.NormalizedCostSnapshot{
		AccountID:  1,
		ProviderID: "aws",
		Services: []snapshot.ServiceCost{
			{Name: "A", Cost: 110, ChangePct: 10},
			{Name: "B", Cost: 120, ChangePct: 20},
			{Name: "C", Cost: 130, ChangePct: 30},
		},
	}
	baselines := map[string]*baseline.AnomalyBaseline{
		baseline.TotalServiceName: {
			AccountID: 1, ProviderID: "aws", ServiceName: baseline.TotalServiceName,
			Mean: 100, SampleCount: 30,
		},
	}
	events, err := d.Detect(context.Background(), snap, baselines, map[string]float64{baseline.TotalServiceName: 200}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if got := len(events[0].ContributingServices); got != 2 {
		t.Errorf("got %d contributors, want cap of 2", got)
	}
}

func TestDetectPerServiceContributor(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	d := newTestDetector(repo)
	baselines := map[string]*baseline.AnomalyBaseline{"EC2": warmBaseline("EC2", 100)}

	events, err := d.Detect(context.Background(), detectSnapshot(), baselines, map[string]float64{"EC2": 150}, detectNow)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	contrib := events[0].ContributingServices
	if len(contrib) != 1 || contrib[0].Name != "EC2" {
		t.Fatalf("per-service contributors = %+v, want just EC2", contrib)
	}
	// EC2 at 150 with +50% change implies previous 100, delta 50.
	if contrib[0].Delta < 49.9 || contrib[0].Delta > 50.1 {
		t.Errorf("delta = %v, want ~50", contrib[0].Delta)
	}
}
