package client

import "time"

// Account is a registered billing account.
type Account struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	ProviderID   string     `json:"provider_id"`
	Name         string     `json:"name"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ServiceCost is one service's share of the current month spend.
type ServiceCost struct {
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	ChangePct float64 `json:"change_pct"`
}

// DailyCost is the total spend for one day.
type DailyCost struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// Snapshot is a normalized cost snapshot.
type Snapshot struct {
	AccountID        int64         `json:"account_id"`
	ProviderID       string        `json:"provider_id"`
	PeriodStart      time.Time     `json:"period_start"`
	CurrentMonthCost float64       `json:"current_month_cost"`
	LastMonthCost    float64       `json:"last_month_cost"`
	ForecastCost     float64       `json:"forecast_cost"`
	Credits          float64       `json:"credits"`
	Savings          float64       `json:"savings"`
	Services         []ServiceCost `json:"services"`
	DailyCosts       []DailyCost   `json:"daily_costs"`
	FetchedAt        time.Time     `json:"fetched_at"`
}

// SyncResult is the outcome of syncing one account.
type SyncResult struct {
	AccountID      int64  `json:"account_id"`
	ProviderID     string `json:"provider_id"`
	Status         string `json:"status"`
	Error          *SyncError `json:"error,omitempty"`
	AnomaliesFound int    `json:"anomalies_found"`
	FromCache      bool   `json:"from_cache"`
}

// SyncError is the failure detail in a sync result.
type SyncError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SyncSummary aggregates a batch of sync results.
type SyncSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Results   []*SyncResult `json:"results"`
}

// ContributingService explains part of an anomaly's cost delta.
type ContributingService struct {
	Name        string  `json:"name"`
	Delta       float64 `json:"delta"`
	CurrentCost float64 `json:"current_cost"`
}

// AnomalyEvent is a detected cost deviation.
type AnomalyEvent struct {
	ID                   string                `json:"id"`
	AccountID            int64                 `json:"account_id"`
	ProviderID           string                `json:"provider_id"`
	ServiceName          string                `json:"service_name"`
	DetectedDate         time.Time             `json:"detected_date"`
	AnomalyType          string                `json:"anomaly_type"`
	Severity             string                `json:"severity"`
	ExpectedCost         float64               `json:"expected_cost"`
	ActualCost           float64               `json:"actual_cost"`
	VariancePercent      float64               `json:"variance_percent"`
	ContributingServices []ContributingService `json:"contributing_services,omitempty"`
	ResolutionStatus     string                `json:"resolution_status"`
	CreatedAt            time.Time             `json:"created_at"`
}

// Paginated wraps a paginated list response.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}
