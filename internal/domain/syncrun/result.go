// Package syncrun holds the ephemeral per-run outcome types surfaced by the
// sync orchestrator. Results are returned to callers and logged, never
// persisted as their own entity.
package syncrun

import "time"

// Statuses for one account's sync.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped" // fresh cached snapshot, upstream fetch avoided
	StatusFailure = "failure"
)

// Result is the outcome of syncing one (account, provider) pair.
type Result struct {
	AccountID      int64         `json:"account_id"`
	ProviderID     string        `json:"provider_id"`
	Status         string        `json:"status"`
	Error          *Error        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration_ms"`
	AnomaliesFound int           `json:"anomalies_found"`
	FromCache      bool          `json:"from_cache"`
}

// Error carries the failure detail for one account without exposing
// internal error values across the API boundary.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Summary aggregates a batch of results for API consumers.
type Summary struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Results   []*Result `json:"results"`
}

// Summarize folds a result list into counts.
func Summarize(results []*Result) *Summary {
	s := &Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusSkipped:
			s.Skipped++
		case StatusFailure:
			s.Failed++
		}
	}
	return s
}
