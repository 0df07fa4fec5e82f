package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

const vercelAPIBase = "https://api.vercel.com"

// VercelFetcher retrieves usage billing for the current period. Team
// accounts pass team_id in their credentials; personal accounts omit it.
type VercelFetcher struct {
	doer *httpDoer
}

func NewVercelFetcher(doer *httpDoer) *VercelFetcher {
	return &VercelFetcher{doer: doer}
}

func (f *VercelFetcher) ProviderID() string { return account.ProviderVercel }

func (f *VercelFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	token := creds.Get("token")

	now := time.Now().UTC()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	q := url.Values{}
	q.Set("from", periodStart.Format("2006-01-02"))
	q.Set("to", now.Format("2006-01-02"))
	if teamID := creds.Get("team_id"); teamID != "" {
		q.Set("teamId", teamID)
	}

	body, err := f.doer.GetJSON(ctx, account.ProviderVercel,
		bearerGet(vercelAPIBase+"/v1/billing/usage?"+q.Encode(), token))
	if err != nil {
		return nil, err
	}

	// Validate the envelope is JSON before handing it to the adapter.
	if !json.Valid(body) {
		return nil, errors.TransientFetchError(account.ProviderVercel, errInvalidBody)
	}
	return body, nil
}
