package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// AWSAdapter normalizes AWS Cost Explorer GetCostAndUsage payloads:
// daily granularity, grouped by SERVICE, UnblendedCost metric.
type AWSAdapter struct{}

func (a *AWSAdapter) ProviderID() string { return account.ProviderAWS }

type awsRawPayload struct {
	ResultsByTime []struct {
		TimePeriod *struct {
			Start string `json:"Start"`
			End   string `json:"End"`
		} `json:"TimePeriod"`
		Groups []struct {
			Keys    []string `json:"Keys"`
			Metrics map[string]struct {
				Amount string `json:"Amount"`
				Unit   string `json:"Unit"`
			} `json:"Metrics"`
		} `json:"Groups"`
		Total map[string]struct {
			Amount string `json:"Amount"`
			Unit   string `json:"Unit"`
		} `json:"Total"`
	} `json:"ResultsByTime"`
	Forecast string `json:"ForecastedAmount,omitempty"`
}

func (a *AWSAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload awsRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderAWS, "ResultsByTime")
	}

	b := newSnapshotBuilder(accountID, account.ProviderAWS, now)
	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	for _, rbt := range payload.ResultsByTime {
		if rbt.TimePeriod == nil {
			return nil, errors.NormalizationError(account.ProviderAWS, "ResultsByTime.TimePeriod")
		}
		day := parseDay(rbt.TimePeriod.Start)
		if day.IsZero() {
			return nil, errors.NormalizationError(account.ProviderAWS, "TimePeriod.Start")
		}

		thisMonth := !day.Before(b.periodStart)
		lastMonth := !day.Before(lastMonthStart) && day.Before(b.periodStart)

		dayTotal := 0.0
		for _, group := range rbt.Groups {
			serviceName := ""
			if len(group.Keys) > 0 {
				serviceName = group.Keys[0]
			}
			amount := 0.0
			if metric, ok := group.Metrics["UnblendedCost"]; ok {
				amount = parseMoneyString(metric.Amount)
			}
			if amount == 0 {
				continue
			}
			dayTotal += amount
			if thisMonth {
				b.addService(serviceName, amount)
			}
		}

		// Ungrouped days carry only the Total metric.
		if dayTotal == 0 {
			if total, ok := rbt.Total["UnblendedCost"]; ok {
				dayTotal = parseMoneyString(total.Amount)
			}
		}

		if thisMonth {
			b.addDaily(day, dayTotal)
		} else if lastMonth {
			b.addLastMonthCost(dayTotal)
		}
	}

	if payload.Forecast != "" {
		b.setForecast(parseMoneyString(payload.Forecast))
	}

	return b.build(), nil
}
