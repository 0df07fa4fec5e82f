package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
)

// SnapshotRepository persists snapshot headers plus per-day cost rows. The
// header keeps the service breakdown as a JSON column; daily rows get their
// own table so range queries stay cheap.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) snapshot.Repository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Upsert(ctx context.Context, s *snapshot.NormalizedCostSnapshot) error {
	services, err := json.Marshal(s.Services)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO cost_snapshots
		(account_id, provider_id, period_start, current_month_cost, last_month_cost,
		 forecast_cost, credits, savings, services, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id, provider_id, period_start) DO UPDATE SET
			current_month_cost = excluded.current_month_cost,
			last_month_cost = excluded.last_month_cost,
			forecast_cost = excluded.forecast_cost,
			credits = excluded.credits,
			savings = excluded.savings,
			services = excluded.services,
			fetched_at = excluded.fetched_at`

	_, err = tx.ExecContext(ctx, query,
		s.AccountID, s.ProviderID, s.PeriodStart.UTC(), s.CurrentMonthCost, s.LastMonthCost,
		s.ForecastCost, s.Credits, s.Savings, string(services), s.FetchedAt.UTC())
	if err != nil {
		return err
	}

	daily := `INSERT INTO daily_costs (account_id, provider_id, date, cost)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, provider_id, date) DO UPDATE SET
			cost = excluded.cost`
	for _, d := range s.DailyCosts {
		if _, err := tx.ExecContext(ctx, daily, s.AccountID, s.ProviderID, d.Date.UTC(), d.Cost); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SnapshotRepository) GetLatest(ctx context.Context, accountID int64) (*snapshot.NormalizedCostSnapshot, error) {
	query := `SELECT account_id, provider_id, period_start, current_month_cost, last_month_cost,
		forecast_cost, credits, savings, services, fetched_at
		FROM cost_snapshots WHERE account_id = $1
		ORDER BY fetched_at DESC LIMIT 1`

	var s snapshot.NormalizedCostSnapshot
	var services string
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&s.AccountID, &s.ProviderID, &s.PeriodStart, &s.CurrentMonthCost, &s.LastMonthCost,
		&s.ForecastCost, &s.Credits, &s.Savings, &services, &s.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(services), &s.Services); err != nil {
		return nil, err
	}

	s.DailyCosts, err = r.GetDailyCosts(ctx, accountID, s.PeriodStart, s.FetchedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SnapshotRepository) GetDailyCosts(ctx context.Context, accountID int64, from, to time.Time) ([]snapshot.DailyCost, error) {
	query := `SELECT date, cost FROM daily_costs
		WHERE account_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, accountID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var costs []snapshot.DailyCost
	for rows.Next() {
		var d snapshot.DailyCost
		if err := rows.Scan(&d.Date, &d.Cost); err != nil {
			return nil, err
		}
		costs = append(costs, d)
	}
	return costs, rows.Err()
}

func (r *SnapshotRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_costs WHERE account_id = $1`, accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cost_snapshots WHERE account_id = $1`, accountID); err != nil {
		return err
	}
	return tx.Commit()
}
