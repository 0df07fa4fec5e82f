package providers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

const doAPIBase = "https://api.digitalocean.com/v2"

// DigitalOceanFetcher retrieves customer balance and billing history and
// assembles them into one raw payload for the adapter.
type DigitalOceanFetcher struct {
	doer *httpDoer
}

func NewDigitalOceanFetcher(doer *httpDoer) *DigitalOceanFetcher {
	return &DigitalOceanFetcher{doer: doer}
}

func (f *DigitalOceanFetcher) ProviderID() string { return account.ProviderDigitalOcean }

func (f *DigitalOceanFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	token := creds.Get("token")

	balance, err := f.doer.GetJSON(ctx, account.ProviderDigitalOcean,
		bearerGet(doAPIBase+"/customers/my/balance", token))
	if err != nil {
		return nil, err
	}

	history, err := f.doer.GetJSON(ctx, account.ProviderDigitalOcean,
		bearerGet(doAPIBase+"/customers/my/billing_history?per_page=200", token))
	if err != nil {
		return nil, err
	}

	var historyEnvelope struct {
		BillingHistory json.RawMessage `json:"billing_history"`
	}
	if err := json.Unmarshal(history, &historyEnvelope); err != nil {
		return nil, errors.TransientFetchError(account.ProviderDigitalOcean, err)
	}

	payload := map[string]json.RawMessage{
		"balance": balance,
	}
	if len(historyEnvelope.BillingHistory) > 0 {
		payload["billing_history"] = historyEnvelope.BillingHistory
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderDigitalOcean, err)
	}
	return raw, nil
}

// bearerGet builds a per-attempt GET request factory with a bearer token.
func bearerGet(url, token string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}
}
