package services

import (
	"context"
	"fmt"
	"time"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
)

// AnomalyService answers anomaly queries and applies operator resolution
// actions under the state machine.
type AnomalyService struct {
	anomalies anomaly.Repository
	log       *logger.Logger
}

// NewAnomalyService creates an anomaly query service.
func NewAnomalyService(anomalies anomaly.Repository, log *logger.Logger) *AnomalyService {
	return &AnomalyService{anomalies: anomalies, log: log}
}

// Get retrieves one anomaly event.
func (s *AnomalyService) Get(ctx context.Context, id string) (*anomaly.Event, error) {
	ev, err := s.anomalies.GetByID(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("failed to load anomaly event", err)
	}
	if ev == nil {
		return nil, errors.NotFound("anomaly event")
	}
	return ev, nil
}

// List retrieves anomaly events newest first with optional filters.
func (s *AnomalyService) List(ctx context.Context, filter anomaly.Filter, limit, offset int) ([]*anomaly.Event, int64, error) {
	if filter.Status != "" && !anomaly.ValidStatus(filter.Status) {
		return nil, 0, errors.BadRequest(fmt.Sprintf("unknown status: %s", filter.Status))
	}
	if filter.Severity != "" && !anomaly.ValidSeverity(filter.Severity) {
		return nil, 0, errors.BadRequest(fmt.Sprintf("unknown severity: %s", filter.Severity))
	}
	events, total, err := s.anomalies.ListWithPagination(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("failed to list anomaly events", err)
	}
	return events, total, nil
}

// UpdateStatus moves an event through the resolution state machine. Illegal
// transitions, including any move out of a terminal state, are rejected.
func (s *AnomalyService) UpdateStatus(ctx context.Context, id, status string) (*anomaly.Event, error) {
	if !anomaly.ValidStatus(status) {
		return nil, errors.BadRequest(fmt.Sprintf("unknown status: %s", status))
	}
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !anomaly.CanTransition(ev.ResolutionStatus, status) {
		return nil, errors.Conflict(fmt.Sprintf("cannot transition anomaly from %s to %s", ev.ResolutionStatus, status))
	}

	ev.ResolutionStatus = status
	ev.UpdatedAt = time.Now().UTC()
	if err := s.anomalies.Update(ctx, ev); err != nil {
		return nil, errors.DatabaseError("failed to update anomaly event", err)
	}

	s.log.WithFields(map[string]interface{}{
		"anomaly_id": id,
		"status":     status,
	}).Info("anomaly status updated")
	return ev, nil
}

// SeverityCounts returns open-event counts per severity for an account.
func (s *AnomalyService) SeverityCounts(ctx context.Context, accountID int64) (map[string]int, error) {
	counts, err := s.anomalies.CountBySeverity(ctx, accountID)
	if err != nil {
		return nil, errors.DatabaseError("failed to count anomaly events", err)
	}
	return counts, nil
}
