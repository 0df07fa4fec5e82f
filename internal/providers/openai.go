package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/errors"
)

const openAIAPIBase = "https://api.openai.com"

// OpenAIFetcher retrieves organization cost buckets. The admin key is
// probed first with a cheap ListModels call so bad credentials fail fast
// with a clean authentication error instead of surfacing mid-pagination.
type OpenAIFetcher struct {
	doer *httpDoer
}

func NewOpenAIFetcher(doer *httpDoer) *OpenAIFetcher {
	return &OpenAIFetcher{doer: doer}
}

func (f *OpenAIFetcher) ProviderID() string { return account.ProviderOpenAI }

func (f *OpenAIFetcher) Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error) {
	apiKey := creds.Get("api_key")

	client := openai.NewClient(apiKey)
	if _, err := client.ListModels(ctx); err != nil {
		if strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "invalid_api_key") {
			return nil, errors.AuthenticationError(account.ProviderOpenAI, err)
		}
		return nil, errors.TransientFetchError(account.ProviderOpenAI, err)
	}

	now := time.Now().UTC()
	start := now.AddDate(0, -1, 0)
	start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)

	q := url.Values{}
	q.Set("start_time", strconv.FormatInt(start.Unix(), 10))
	q.Set("bucket_width", "1d")
	q.Set("limit", "62")

	body, err := f.doer.GetJSON(ctx, account.ProviderOpenAI,
		bearerGet(openAIAPIBase+"/v1/organization/costs?"+q.Encode(), apiKey))
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, errors.TransientFetchError(account.ProviderOpenAI, errInvalidBody)
	}
	return body, nil
}
