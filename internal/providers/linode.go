package providers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

const linodeAPIBase = "https://api.linode.com/v4"

// LinodeFetcher retrieves the account balance and the latest invoice's
// items and assembles them into one raw payload for the adapter.
type LinodeFetcher struct {
	doer *httpDoer
}

func NewLinodeFetcher(doer *httpDoer) *LinodeFetcher {
	return &LinodeFetcher{doer: doer}
}

func (f *LinodeFetcher) ProviderID() string { return account.ProviderLinode }

func (f *LinodeFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	token := creds.Get("token")

	acctBody, err := f.doer.GetJSON(ctx, account.ProviderLinode,
		bearerGet(linodeAPIBase+"/account", token))
	if err != nil {
		return nil, err
	}

	invoices, err := f.doer.GetJSON(ctx, account.ProviderLinode,
		bearerGet(linodeAPIBase+"/account/invoices?page_size=100", token))
	if err != nil {
		return nil, err
	}

	var invoiceList struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(invoices, &invoiceList); err != nil {
		return nil, errors.TransientFetchError(account.ProviderLinode, err)
	}

	var items json.RawMessage
	if len(invoiceList.Data) > 0 {
		latest := strconv.FormatInt(invoiceList.Data[0].ID, 10)
		itemsBody, err := f.doer.GetJSON(ctx, account.ProviderLinode,
			bearerGet(linodeAPIBase+"/account/invoices/"+latest+"/items?page_size=500", token))
		if err != nil {
			return nil, err
		}
		var itemsEnvelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(itemsBody, &itemsEnvelope); err == nil {
			items = itemsEnvelope.Data
		}
	}

	payload := map[string]json.RawMessage{
		"account": acctBody,
	}
	if len(items) > 0 {
		payload["invoice_items"] = items
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.TransientFetchError(account.ProviderLinode, err)
	}
	return raw, nil
}
