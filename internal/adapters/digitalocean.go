package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// DigitalOceanAdapter normalizes the combined balance + billing history
// payload assembled by the DigitalOcean fetch client. Amounts arrive as
// decimal strings; billing history entries of type "Payment" are account
// credits, not spend.
type DigitalOceanAdapter struct{}

func (a *DigitalOceanAdapter) ProviderID() string { return account.ProviderDigitalOcean }

type doRawPayload struct {
	Balance *struct {
		MonthToDateUsage   string `json:"month_to_date_usage"`
		MonthToDateBalance string `json:"month_to_date_balance"`
		AccountBalance     string `json:"account_balance"`
	} `json:"balance"`
	BillingHistory []struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Type        string `json:"type"`
	} `json:"billing_history"`
	InvoiceItems []struct {
		Product   string `json:"product"`
		Amount    string `json:"amount"`
		StartDate string `json:"start_date"`
	} `json:"invoice_items"`
}

func (a *DigitalOceanAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload doRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderDigitalOcean, "balance")
	}

	b := newSnapshotBuilder(accountID, account.ProviderDigitalOcean, now)
	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	if payload.Balance != nil {
		b.setCurrentMonthCost(parseMoneyString(payload.Balance.MonthToDateUsage))
		// A negative account balance is credit held on the account.
		if bal := parseMoneyString(payload.Balance.AccountBalance); bal < 0 {
			b.addCredits(bal)
		}
	}

	for _, item := range payload.InvoiceItems {
		day := parseDay(item.StartDate)
		if day.IsZero() || day.Before(b.periodStart) {
			continue
		}
		b.addService(item.Product, parseMoneyString(item.Amount))
	}

	for _, entry := range payload.BillingHistory {
		day := parseDOTimestamp(entry.Date)
		if day.IsZero() {
			continue
		}
		amount := parseMoneyString(entry.Amount)
		if entry.Type == "Payment" || amount < 0 {
			b.addCredits(amount)
			continue
		}
		if day.Before(b.periodStart) {
			if !day.Before(lastMonthStart) {
				b.addLastMonthCost(amount)
			}
			continue
		}
		b.addDaily(day, amount)
	}

	return b.build(), nil
}

// parseDOTimestamp handles the RFC3339 timestamps DigitalOcean uses in
// billing history.
func parseDOTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return parseDay(s)
	}
	return t.UTC()
}
