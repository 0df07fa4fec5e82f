package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// OpenAIAdapter normalizes the organization costs payload: daily buckets
// keyed by unix start time, each holding per-line-item amounts.
type OpenAIAdapter struct{}

func (a *OpenAIAdapter) ProviderID() string { return account.ProviderOpenAI }

type openAIRawPayload struct {
	Data []struct {
		StartTime int64 `json:"start_time"`
		Results   []struct {
			Amount *struct {
				Value    float64 `json:"value"`
				Currency string  `json:"currency"`
			} `json:"amount"`
			LineItem string `json:"line_item"`
		} `json:"results"`
	} `json:"data"`
}

func (a *OpenAIAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload openAIRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderOpenAI, "data")
	}

	b := newSnapshotBuilder(accountID, account.ProviderOpenAI, now)
	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	for _, bucket := range payload.Data {
		if bucket.StartTime <= 0 {
			return nil, errors.NormalizationError(account.ProviderOpenAI, "data.start_time")
		}
		day := time.Unix(bucket.StartTime, 0).UTC()

		dayTotal := 0.0
		for _, result := range bucket.Results {
			if result.Amount == nil {
				continue
			}
			dayTotal += result.Amount.Value
			if !day.Before(b.periodStart) {
				b.addService(result.LineItem, result.Amount.Value)
			}
		}

		if day.Before(b.periodStart) {
			if !day.Before(lastMonthStart) {
				b.addLastMonthCost(dayTotal)
			}
			continue
		}
		b.addDaily(day, dayTotal)
	}

	return b.build(), nil
}
