package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// AzureAdapter normalizes Azure Cost Management query responses: a column
// header list plus positional rows, daily granularity grouped by
// ServiceName. Azure encodes usage dates as YYYYMMDD integers.
type AzureAdapter struct{}

func (a *AzureAdapter) ProviderID() string { return account.ProviderAzure }

type azureRawPayload struct {
	Properties *struct {
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Rows [][]interface{} `json:"rows"`
	} `json:"properties"`
}

func (a *AzureAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload azureRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderAzure, "properties")
	}

	b := newSnapshotBuilder(accountID, account.ProviderAzure, now)
	if payload.Properties == nil {
		return b.build(), nil
	}

	colIndex := make(map[string]int)
	for i, col := range payload.Properties.Columns {
		colIndex[col.Name] = i
	}

	costIdx, hasCost := colIndex["PreTaxCost"]
	if !hasCost {
		costIdx, hasCost = colIndex["Cost"]
	}
	serviceIdx, hasService := colIndex["ServiceName"]
	dateIdx, hasDate := colIndex["UsageDateKey"]
	if !hasDate {
		dateIdx, hasDate = colIndex["UsageDate"]
	}

	if len(payload.Properties.Rows) > 0 && !hasCost {
		return nil, errors.NormalizationError(account.ProviderAzure, "columns.PreTaxCost")
	}

	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	for _, row := range payload.Properties.Rows {
		if len(row) == 0 {
			continue
		}

		cost := 0.0
		if costIdx < len(row) {
			cost = parseMoney(row[costIdx])
		}

		serviceName := ""
		if hasService && serviceIdx < len(row) {
			if v, ok := row[serviceIdx].(string); ok {
				serviceName = v
			}
		}

		var day time.Time
		if hasDate && dateIdx < len(row) {
			day = parseAzureDate(row[dateIdx])
		}
		if day.IsZero() {
			continue
		}

		if day.Before(b.periodStart) {
			if !day.Before(lastMonthStart) {
				b.addLastMonthCost(cost)
			}
			continue
		}

		b.addService(serviceName, cost)
		b.addDaily(day, cost)
	}

	return b.build(), nil
}

// parseAzureDate accepts both the YYYYMMDD integer key and an ISO date
// string, which different API versions emit.
func parseAzureDate(v interface{}) time.Time {
	switch d := v.(type) {
	case float64:
		dateInt := int(d)
		year := dateInt / 10000
		month := (dateInt % 10000) / 100
		day := dateInt % 100
		if year < 2000 || month < 1 || month > 12 || day < 1 || day > 31 {
			return time.Time{}
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	case string:
		if t := parseDay(d); !t.IsZero() {
			return t
		}
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return time.Time{}
		}
		return t.UTC().Truncate(24 * time.Hour)
	default:
		return time.Time{}
	}
}
