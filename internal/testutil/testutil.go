package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// NewTestDB creates an in-memory SQLite database with the full schema.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		provider_id VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		credentials_ref VARCHAR(64) NOT NULL UNIQUE,
		last_synced_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cost_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		provider_id VARCHAR(32) NOT NULL,
		period_start TIMESTAMP NOT NULL,
		current_month_cost REAL NOT NULL DEFAULT 0,
		last_month_cost REAL NOT NULL DEFAULT 0,
		forecast_cost REAL NOT NULL DEFAULT 0,
		credits REAL NOT NULL DEFAULT 0,
		savings REAL NOT NULL DEFAULT 0,
		services TEXT NOT NULL DEFAULT '[]',
		fetched_at TIMESTAMP NOT NULL,
		UNIQUE(account_id, provider_id, period_start)
	);

	CREATE TABLE IF NOT EXISTS daily_costs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		provider_id VARCHAR(32) NOT NULL,
		date TIMESTAMP NOT NULL,
		cost REAL NOT NULL DEFAULT 0,
		UNIQUE(account_id, provider_id, date)
	);

	CREATE TABLE IF NOT EXISTS anomaly_baselines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		provider_id VARCHAR(32) NOT NULL,
		service_name VARCHAR(255) NOT NULL,
		mean REAL NOT NULL DEFAULT 0,
		std_dev REAL NOT NULL DEFAULT 0,
		sample_count INTEGER NOT NULL DEFAULT 0,
		last_updated TIMESTAMP NOT NULL,
		UNIQUE(account_id, provider_id, service_name)
	);

	CREATE TABLE IF NOT EXISTS anomaly_events (
		id VARCHAR(36) PRIMARY KEY,
		account_id INTEGER NOT NULL,
		provider_id VARCHAR(32) NOT NULL,
		service_name VARCHAR(255) NOT NULL,
		detected_date TIMESTAMP NOT NULL,
		anomaly_type VARCHAR(16) NOT NULL,
		severity VARCHAR(16) NOT NULL,
		expected_cost REAL NOT NULL DEFAULT 0,
		actual_cost REAL NOT NULL DEFAULT 0,
		variance_percent REAL NOT NULL DEFAULT 0,
		contributing_services TEXT NOT NULL DEFAULT '[]',
		resolution_status VARCHAR(16) NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP,
		UNIQUE(account_id, provider_id, service_name, detected_date)
	);

	CREATE TABLE IF NOT EXISTS account_credentials (
		ref VARCHAR(64) PRIMARY KEY,
		sealed BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return db
}
