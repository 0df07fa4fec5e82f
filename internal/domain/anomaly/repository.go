package anomaly

import (
	"context"
	"time"
)

// Repository defines the interface for anomaly event data access
type Repository interface {
	// Create inserts a new anomaly event
	Create(ctx context.Context, e *Event) error

	// GetByID retrieves an anomaly event by ID
	GetByID(ctx context.Context, id string) (*Event, error)

	// FindByKey retrieves the event for one (account, provider, service, date),
	// regardless of status. Returns nil when none exists.
	FindByKey(ctx context.Context, accountID int64, providerID, serviceName string, date time.Time) (*Event, error)

	// Update rewrites a mutable event (used only while status is open,
	// and for operator status transitions)
	Update(ctx context.Context, e *Event) error

	// ListWithPagination retrieves events with filters and pagination,
	// newest first
	ListWithPagination(ctx context.Context, filter Filter, limit, offset int) ([]*Event, int64, error)

	// CountConsecutiveDeviant counts events of the given type for the days
	// immediately preceding date, walking backwards until a gap
	CountConsecutiveDeviant(ctx context.Context, accountID int64, providerID, serviceName, anomalyType string, date time.Time) (int, error)

	// CountBySeverity counts events grouped by severity
	CountBySeverity(ctx context.Context, accountID int64) (map[string]int, error)

	// DeleteByAccount removes all events for an account
	DeleteByAccount(ctx context.Context, accountID int64) error
}
