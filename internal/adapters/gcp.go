package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// GCPAdapter normalizes the BigQuery billing-export rows produced by the
// GCP fetch client: one row per (service, day) with separate cost and
// credit sums.
type GCPAdapter struct{}

func (a *GCPAdapter) ProviderID() string { return account.ProviderGCP }

type gcpRawPayload struct {
	Rows []struct {
		ServiceName string  `json:"service_name"`
		CostDate    string  `json:"cost_date"`
		DailyCost   float64 `json:"daily_cost"`
		Credits     float64 `json:"credits"`
		Currency    string  `json:"currency"`
	} `json:"rows"`
}

func (a *GCPAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload gcpRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderGCP, "rows")
	}

	b := newSnapshotBuilder(accountID, account.ProviderGCP, now)
	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	for _, row := range payload.Rows {
		day := parseDay(row.CostDate)
		if day.IsZero() {
			return nil, errors.NormalizationError(account.ProviderGCP, "rows.cost_date")
		}

		// GCP exports credits as negative adjustments alongside usage cost.
		if row.Credits != 0 {
			b.addCredits(row.Credits)
		}

		if day.Before(b.periodStart) {
			if !day.Before(lastMonthStart) {
				b.addLastMonthCost(row.DailyCost)
			}
			continue
		}

		b.addService(row.ServiceName, row.DailyCost)
		b.addDaily(day, row.DailyCost)
	}

	return b.build(), nil
}
