package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// LinodeAdapter normalizes the account + invoice items payload assembled by
// the Linode fetch client. Linode reports an uninvoiced balance for the
// running month and labels every invoice item with the service type.
type LinodeAdapter struct{}

func (a *LinodeAdapter) ProviderID() string { return account.ProviderLinode }

type linodeRawPayload struct {
	Account *struct {
		Balance          float64 `json:"balance"`
		BalanceUninvoiced float64 `json:"balance_uninvoiced"`
	} `json:"account"`
	InvoiceItems []struct {
		Label    string  `json:"label"`
		Amount   float64 `json:"amount"`
		From     string  `json:"from"`
		ItemType string  `json:"type"`
	} `json:"invoice_items"`
	Promotions []struct {
		CreditRemaining string `json:"credit_remaining"`
	} `json:"active_promotions"`
}

func (a *LinodeAdapter) Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error) {
	var payload linodeRawPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NormalizationError(account.ProviderLinode, "account")
	}

	b := newSnapshotBuilder(accountID, account.ProviderLinode, now)
	lastMonthStart := b.periodStart.AddDate(0, -1, 0)

	if payload.Account != nil {
		b.setCurrentMonthCost(payload.Account.BalanceUninvoiced)
		if payload.Account.Balance < 0 {
			b.addCredits(payload.Account.Balance)
		}
	}

	for _, promo := range payload.Promotions {
		b.addCredits(parseMoneyString(promo.CreditRemaining))
	}

	for _, item := range payload.InvoiceItems {
		day := parseLinodeTimestamp(item.From)
		if day.IsZero() {
			continue
		}
		if day.Before(b.periodStart) {
			if !day.Before(lastMonthStart) {
				b.addLastMonthCost(item.Amount)
			}
			continue
		}
		b.addService(item.Label, item.Amount)
		b.addDaily(day, item.Amount)
	}

	return b.build(), nil
}

// parseLinodeTimestamp handles Linode's "2006-01-02T15:04:05" timestamps,
// which omit the zone suffix.
func parseLinodeTimestamp(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return parseDay(s)
	}
	return t.UTC()
}
