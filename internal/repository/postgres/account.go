package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) account.Repository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) (int64, error) {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `INSERT INTO accounts (user_id, provider_id, name, credentials_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID, a.ProviderID, a.Name, a.CredentialsRef, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		// lib/pq does not support LastInsertId; fall back to a lookup
		row := r.db.QueryRowContext(ctx,
			`SELECT id FROM accounts WHERE credentials_ref = $1`, a.CredentialsRef)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT id, user_id, provider_id, name, credentials_ref, last_synced_at, created_at, updated_at
		FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT id, user_id, provider_id, name, credentials_ref, last_synced_at, created_at, updated_at
		FROM accounts ORDER BY id`
	return r.list(ctx, query)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `SELECT id, user_id, provider_id, name, credentials_ref, last_synced_at, created_at, updated_at
		FROM accounts WHERE user_id = $1 ORDER BY id`
	return r.list(ctx, query, userID)
}

func (r *AccountRepository) list(ctx context.Context, query string, args ...interface{}) ([]*account.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) UpdateLastSyncedAt(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE accounts SET last_synced_at = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, at.UTC(), time.Now().UTC(), id)
	return err
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var a account.Account
	var lastSynced sql.NullTime
	err := row.Scan(&a.ID, &a.UserID, &a.ProviderID, &a.Name, &a.CredentialsRef,
		&lastSynced, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		a.LastSyncedAt = &t
	}
	return &a, nil
}
