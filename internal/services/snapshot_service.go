package services

import (
	"context"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// SnapshotService answers read queries over persisted cost data.
type SnapshotService struct {
	snapshots snapshot.Repository
}

// NewSnapshotService creates a snapshot query service.
func NewSnapshotService(snapshots snapshot.Repository) *SnapshotService {
	return &SnapshotService{snapshots: snapshots}
}

// Latest returns the most recent snapshot for an account.
func (s *SnapshotService) Latest(ctx context.Context, accountID int64) (*snapshot.NormalizedCostSnapshot, error) {
	snap, err := s.snapshots.GetLatest(ctx, accountID)
	if err != nil {
		return nil, errors.DatabaseError("failed to load snapshot", err)
	}
	if snap == nil {
		return nil, errors.NotFound("snapshot")
	}
	return snap, nil
}

// DailyCosts returns the persisted per-day totals for an account over the
// trailing number of days.
func (s *SnapshotService) DailyCosts(ctx context.Context, accountID int64, days int) ([]snapshot.DailyCost, error) {
	if days < 1 {
		days = 30
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -days)
	costs, err := s.snapshots.GetDailyCosts(ctx, accountID, from, to)
	if err != nil {
		return nil, errors.DatabaseError("failed to load daily costs", err)
	}
	return costs, nil
}
