package baseline

import "time"

// AnomalyBaseline holds the rolling cost statistics for one
// (provider, account, service) triple. It is mutated only by the baseline
// engine: every update is a weighted recompute that blends the prior
// statistics with the newest daily sample.
type AnomalyBaseline struct {
	AccountID   int64     `json:"account_id"`
	ProviderID  string    `json:"provider_id"`
	ServiceName string    `json:"service_name"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// TotalServiceName keys the baseline tracking the account's total daily
// spend rather than a single service.
const TotalServiceName = "__total__"

// Cold reports whether the baseline has too few samples to support
// anomaly detection.
func (b *AnomalyBaseline) Cold(minSamples int) bool {
	return b == nil || b.SampleCount < minSamples
}
