package snapshot

import (
	"context"
	"time"
)

// Repository defines the interface for snapshot persistence. Daily rows are
// upserted by (account_id, provider_id, date) so re-syncing the same day
// overwrites rather than duplicates.
type Repository interface {
	// Upsert persists a snapshot header and its daily rows idempotently
	Upsert(ctx context.Context, s *NormalizedCostSnapshot) error

	// GetLatest retrieves the most recently fetched snapshot for an account
	GetLatest(ctx context.Context, accountID int64) (*NormalizedCostSnapshot, error)

	// GetDailyCosts retrieves persisted daily costs for an account within a range
	GetDailyCosts(ctx context.Context, accountID int64, from, to time.Time) ([]DailyCost, error)

	// DeleteByAccount removes all snapshot data for an account
	DeleteByAccount(ctx context.Context, accountID int64) error
}
