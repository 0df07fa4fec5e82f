package baseline

import "context"

// Repository defines the interface for baseline persistence
type Repository interface {
	// Get retrieves the baseline for one (account, provider, service) triple
	Get(ctx context.Context, accountID int64, providerID, serviceName string) (*AnomalyBaseline, error)

	// GetAll retrieves every baseline for an account+provider, keyed by service name
	GetAll(ctx context.Context, accountID int64, providerID string) (map[string]*AnomalyBaseline, error)

	// Upsert writes a baseline keyed by (account_id, provider_id, service_name)
	Upsert(ctx context.Context, b *AnomalyBaseline) error

	// DeleteByAccount removes all baselines for an account
	DeleteByAccount(ctx context.Context, accountID int64) error
}
