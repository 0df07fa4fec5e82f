// Package cache memoizes normalized snapshots per (account, provider) for
// a short TTL so repeated syncs inside one window skip the upstream fetch.
package cache

import (
	"context"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
)

// SnapshotCache is shared across concurrent syncs of the same account;
// implementations must be safe for concurrent use.
type SnapshotCache interface {
	// Get returns the cached snapshot if present and unexpired
	Get(ctx context.Context, accountID int64, providerID string) (*snapshot.NormalizedCostSnapshot, bool)

	// Set stores a snapshot for the TTL
	Set(ctx context.Context, s *snapshot.NormalizedCostSnapshot, ttl time.Duration)

	// Invalidate drops a cached snapshot
	Invalidate(ctx context.Context, accountID int64, providerID string)
}
