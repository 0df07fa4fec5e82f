package postgres

import (
	"context"
	"database/sql"

	"github.com/costpulse/costpulse/internal/domain/baseline"
)

type BaselineRepository struct {
	db *sql.DB
}

func NewBaselineRepository(db *sql.DB) baseline.Repository {
	return &BaselineRepository{db: db}
}

func (r *BaselineRepository) Get(ctx context.Context, accountID int64, providerID, serviceName string) (*baseline.AnomalyBaseline, error) {
	query := `SELECT account_id, provider_id, service_name, mean, std_dev, sample_count, last_updated
		FROM anomaly_baselines
		WHERE account_id = $1 AND provider_id = $2 AND service_name = $3`

	var b baseline.AnomalyBaseline
	err := r.db.QueryRowContext(ctx, query, accountID, providerID, serviceName).Scan(
		&b.AccountID, &b.ProviderID, &b.ServiceName, &b.Mean, &b.StdDev, &b.SampleCount, &b.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BaselineRepository) GetAll(ctx context.Context, accountID int64, providerID string) (map[string]*baseline.AnomalyBaseline, error) {
	query := `SELECT account_id, provider_id, service_name, mean, std_dev, sample_count, last_updated
		FROM anomaly_baselines
		WHERE account_id = $1 AND provider_id = $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	baselines := make(map[string]*baseline.AnomalyBaseline)
	for rows.Next() {
		var b baseline.AnomalyBaseline
		if err := rows.Scan(&b.AccountID, &b.ProviderID, &b.ServiceName,
			&b.Mean, &b.StdDev, &b.SampleCount, &b.LastUpdated); err != nil {
			return nil, err
		}
		baselines[b.ServiceName] = &b
	}
	return baselines, rows.Err()
}

func (r *BaselineRepository) Upsert(ctx context.Context, b *baseline.AnomalyBaseline) error {
	query := `INSERT INTO anomaly_baselines
		(account_id, provider_id, service_name, mean, std_dev, sample_count, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, provider_id, service_name) DO UPDATE SET
			mean = excluded.mean,
			std_dev = excluded.std_dev,
			sample_count = excluded.sample_count,
			last_updated = excluded.last_updated`

	_, err := r.db.ExecContext(ctx, query,
		b.AccountID, b.ProviderID, b.ServiceName, b.Mean, b.StdDev, b.SampleCount, b.LastUpdated.UTC())
	return err
}

func (r *BaselineRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM anomaly_baselines WHERE account_id = $1`, accountID)
	return err
}
