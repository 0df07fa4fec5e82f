package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
)

type AnomalyRepository struct {
	db *sql.DB
}

func NewAnomalyRepository(db *sql.DB) anomaly.Repository {
	return &AnomalyRepository{db: db}
}

const anomalyColumns = `id, account_id, provider_id, service_name, detected_date, anomaly_type,
	severity, expected_cost, actual_cost, variance_percent, contributing_services,
	resolution_status, created_at, updated_at`

func (r *AnomalyRepository) Create(ctx context.Context, e *anomaly.Event) error {
	contributing, err := json.Marshal(e.ContributingServices)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO anomaly_events (` + anomalyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.AccountID, e.ProviderID, e.ServiceName, e.DetectedDate.UTC(), e.AnomalyType,
		e.Severity, e.ExpectedCost, e.ActualCost, e.VariancePercent, string(contributing),
		e.ResolutionStatus, e.CreatedAt, e.CreatedAt)
	return err
}

func (r *AnomalyRepository) GetByID(ctx context.Context, id string) (*anomaly.Event, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomaly_events WHERE id = $1`
	e, err := scanAnomaly(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *AnomalyRepository) FindByKey(ctx context.Context, accountID int64, providerID, serviceName string, date time.Time) (*anomaly.Event, error) {
	query := `SELECT ` + anomalyColumns + ` FROM anomaly_events
		WHERE account_id = $1 AND provider_id = $2 AND service_name = $3 AND detected_date = $4`

	e, err := scanAnomaly(r.db.QueryRowContext(ctx, query, accountID, providerID, serviceName, date.UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *AnomalyRepository) Update(ctx context.Context, e *anomaly.Event) error {
	contributing, err := json.Marshal(e.ContributingServices)
	if err != nil {
		return err
	}

	query := `UPDATE anomaly_events SET
		anomaly_type = $1, severity = $2, expected_cost = $3, actual_cost = $4,
		variance_percent = $5, contributing_services = $6, resolution_status = $7, updated_at = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		e.AnomalyType, e.Severity, e.ExpectedCost, e.ActualCost,
		e.VariancePercent, string(contributing), e.ResolutionStatus, e.UpdatedAt.UTC(), e.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("anomaly event %s not found", e.ID)
	}
	return nil
}

func (r *AnomalyRepository) ListWithPagination(ctx context.Context, filter anomaly.Filter, limit, offset int) ([]*anomaly.Event, int64, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.AccountID > 0 {
		add("account_id = $%d", filter.AccountID)
	}
	if filter.Status != "" {
		add("resolution_status = $%d", filter.Status)
	}
	if filter.Severity != "" {
		add("severity = $%d", filter.Severity)
	}
	if filter.Type != "" {
		add("anomaly_type = $%d", filter.Type)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM anomaly_events` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+anomalyColumns+` FROM anomaly_events%s
		ORDER BY detected_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*anomaly.Event
	for rows.Next() {
		e, err := scanAnomaly(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// CountConsecutiveDeviant walks backwards one day at a time from the day
// before date, counting how many consecutive days carry an event of the
// given type for this service.
func (r *AnomalyRepository) CountConsecutiveDeviant(ctx context.Context, accountID int64, providerID, serviceName, anomalyType string, date time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM anomaly_events
		WHERE account_id = $1 AND provider_id = $2 AND service_name = $3
		AND anomaly_type IN ($4, $5) AND detected_date = $6`

	count := 0
	day := date.UTC().Truncate(24 * time.Hour)
	for {
		day = day.AddDate(0, 0, -1)
		var n int
		err := r.db.QueryRowContext(ctx, query,
			accountID, providerID, serviceName, anomalyType, anomaly.TypeTrend, day).Scan(&n)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return count, nil
		}
		count++
	}
}

func (r *AnomalyRepository) CountBySeverity(ctx context.Context, accountID int64) (map[string]int, error) {
	query := `SELECT severity, COUNT(*) FROM anomaly_events
		WHERE account_id = $1 AND resolution_status = $2
		GROUP BY severity`

	rows, err := r.db.QueryContext(ctx, query, accountID, anomaly.StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var severity string
		var n int
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, err
		}
		counts[severity] = n
	}
	return counts, rows.Err()
}

func (r *AnomalyRepository) DeleteByAccount(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM anomaly_events WHERE account_id = $1`, accountID)
	return err
}

func scanAnomaly(row rowScanner) (*anomaly.Event, error) {
	var e anomaly.Event
	var contributing string
	var updated sql.NullTime
	err := row.Scan(&e.ID, &e.AccountID, &e.ProviderID, &e.ServiceName, &e.DetectedDate,
		&e.AnomalyType, &e.Severity, &e.ExpectedCost, &e.ActualCost, &e.VariancePercent,
		&contributing, &e.ResolutionStatus, &e.CreatedAt, &updated)
	if err != nil {
		return nil, err
	}
	if contributing != "" && contributing != "null" {
		if err := json.Unmarshal([]byte(contributing), &e.ContributingServices); err != nil {
			return nil, err
		}
	}
	if updated.Valid {
		e.UpdatedAt = updated.Time
	}
	return &e, nil
}
