package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// VercelAdapter normalizes Vercel usage-billing payloads: one item per
// metered product with an optional per-day breakdown, amounts in US cents.
type VercelAdapter struct{}

func (a *VercelAdapter) ProviderID() string { return account.ProviderVercel }

type vercelRawPayload struct {
	Period *struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Items []struct {
		Name           string `json:"name"`
		TotalCents     int64  `json:"total"`
		DailyBreakdown []struct {
			Date        string `json:"date"`
			AmountCents int64  `json:"amount"`
		} `json:"dailyBreakdown"`
	} `json:"items"`
	CreditsCents  int64 `json:"credits"`
	DiscountCents int64 `json:"discount"`
}

func (a *VercelAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload vercelRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderVercel, "items")
	}

	b := newSnapshotBuilder(accountID, account.ProviderVercel, now)

	for _, item := range payload.Items {
		b.addService(item.Name, centsToDollars(item.TotalCents))
		for _, dayItem := range item.DailyBreakdown {
			day := parseDay(dayItem.Date)
			if day.IsZero() {
				return nil, errors.NormalizationError(account.ProviderVercel, "dailyBreakdown.date")
			}
			b.addDaily(day, centsToDollars(dayItem.AmountCents))
		}
	}

	b.addCredits(centsToDollars(payload.CreditsCents))
	b.addSavings(centsToDollars(payload.DiscountCents))

	return b.build(), nil
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
