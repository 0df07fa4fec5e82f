package services

import (
	"context"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/testutil"
)

func seedEvent(t *testing.T, repo *testutil.MockAnomalyRepository, id, status string) {
	t.Helper()
	err := repo.Create(context.Background(), &anomaly.Event{
		ID:               id,
		AccountID:        1,
		ProviderID:       "aws",
		ServiceName:      "EC2",
		DetectedDate:     time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		AnomalyType:      anomaly.TypeSpike,
		Severity:         anomaly.SeverityHigh,
		ResolutionStatus: status,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestAnomalyStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"open to acknowledged", anomaly.StatusOpen, anomaly.StatusAcknowledged, true},
		{"open to investigating", anomaly.StatusOpen, anomaly.StatusInvestigating, true},
		{"open to false positive", anomaly.StatusOpen, anomaly.StatusFalsePositive, true},
		{"open straight to resolved", anomaly.StatusOpen, anomaly.StatusResolved, false},
		{"acknowledged to resolved", anomaly.StatusAcknowledged, anomaly.StatusResolved, true},
		{"investigating to resolved", anomaly.StatusInvestigating, anomaly.StatusResolved, true},
		{"resolved is terminal", anomaly.StatusResolved, anomaly.StatusOpen, false},
		{"false positive is terminal", anomaly.StatusFalsePositive, anomaly.StatusInvestigating, false},
		{"no self transition", anomaly.StatusOpen, anomaly.StatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockAnomalyRepository()
			svc := NewAnomalyService(repo, testLogger())
			seedEvent(t, repo, "ev-1", tt.from)

			ev, err := svc.UpdateStatus(context.Background(), "ev-1", tt.to)
			if tt.allowed {
				if err != nil {
					t.Fatalf("UpdateStatus returned error: %v", err)
				}
				if ev.ResolutionStatus != tt.to {
					t.Errorf("status = %q, want %q", ev.ResolutionStatus, tt.to)
				}
				if ev.UpdatedAt.IsZero() {
					t.Error("UpdatedAt not stamped")
				}
				return
			}
			if err == nil {
				t.Fatal("illegal transition accepted")
			}
			if errors.Code(err) != errors.ErrCodeConflict {
				t.Errorf("error code = %q, want CONFLICT", errors.Code(err))
			}
			stored, _ := repo.GetByID(context.Background(), "ev-1")
			if stored.ResolutionStatus != tt.from {
				t.Errorf("stored status = %q, want untouched %q", stored.ResolutionStatus, tt.from)
			}
		})
	}
}

func TestAnomalyUpdateStatusUnknown(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	svc := NewAnomalyService(repo, testLogger())
	seedEvent(t, repo, "ev-1", anomaly.StatusOpen)

	if _, err := svc.UpdateStatus(context.Background(), "ev-1", "closed"); err == nil {
		t.Fatal("unknown status accepted")
	} else if errors.Code(err) != errors.ErrCodeBadRequest {
		t.Errorf("error code = %q, want BAD_REQUEST", errors.Code(err))
	}
}

func TestAnomalyGetMissing(t *testing.T) {
	svc := NewAnomalyService(testutil.NewMockAnomalyRepository(), testLogger())

	if _, err := svc.Get(context.Background(), "nope"); err == nil {
		t.Fatal("missing event did not error")
	} else if errors.Code(err) != errors.ErrCodeNotFound {
		t.Errorf("error code = %q, want NOT_FOUND", errors.Code(err))
	}
}

func TestAnomalyListValidatesFilter(t *testing.T) {
	svc := NewAnomalyService(testutil.NewMockAnomalyRepository(), testLogger())

	if _, _, err := svc.List(context.Background(), anomaly.Filter{Status: "bogus"}, 20, 0); err == nil {
		t.Error("bogus status filter accepted")
	}
	if _, _, err := svc.List(context.Background(), anomaly.Filter{Severity: "extreme"}, 20, 0); err == nil {
		t.Error("bogus severity filter accepted")
	}
	if _, _, err := svc.List(context.Background(), anomaly.Filter{Status: anomaly.StatusOpen, Severity: anomaly.SeverityHigh}, 20, 0); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
}

func TestAnomalySeverityCounts(t *testing.T) {
	repo := testutil.NewMockAnomalyRepository()
	svc := NewAnomalyService(repo, testLogger())
	seedEvent(t, repo, "ev-1", anomaly.StatusOpen)
	seedEvent(t, repo, "ev-2", anomaly.StatusOpen)
	seedEvent(t, repo, "ev-3", anomaly.StatusResolved) // closed events are excluded

	counts, err := svc.SeverityCounts(context.Background(), 1)
	if err != nil {
		t.Fatalf("SeverityCounts returned error: %v", err)
	}
	if counts[anomaly.SeverityHigh] != 2 {
		t.Errorf("high count = %d, want 2", counts[anomaly.SeverityHigh])
	}
}
