package account

import (
	"context"
	"time"
)

// Repository defines the interface for account data access
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, a *Account) (int64, error)

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id int64) (*Account, error)

	// List retrieves all accounts
	List(ctx context.Context) ([]*Account, error)

	// ListByUser retrieves all accounts belonging to a user
	ListByUser(ctx context.Context, userID int64) ([]*Account, error)

	// UpdateLastSyncedAt records the completion time of the last successful sync
	UpdateLastSyncedAt(ctx context.Context, id int64, at time.Time) error

	// Delete deletes an account; derived snapshots, baselines and anomaly
	// events cascade at the storage layer
	Delete(ctx context.Context, id int64) error
}
