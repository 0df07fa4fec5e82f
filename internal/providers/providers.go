// Package providers holds the per-provider fetch clients. A fetch client
// owns authentication against one provider's billing API and returns the
// raw payload the matching adapter normalizes; it never interprets cost
// figures itself.
package providers

import (
	"context"
	"encoding/json"

	"github.com/costpulse/costpulse/internal/domain/account"
)

// Credentials is the opaque authentication material resolved for one
// account. Keys are provider-specific; the engine outside this package
// never inspects values and never logs them.
type Credentials map[string]string

// Get returns the named credential or "".
func (c Credentials) Get(key string) string {
	return c[key]
}

// Fetcher retrieves one account's raw billing payload.
type Fetcher interface {
	// ProviderID returns the provider this fetcher handles
	ProviderID() string

	// Fetch calls the provider's billing API and returns the raw payload.
	// Transient failures are retried internally with backoff; credential
	// failures surface immediately as AuthenticationError.
	Fetch(ctx context.Context, acct *account.Account, creds Credentials) (json.RawMessage, error)
}

// Registry is the immutable fetcher set built at process start.
type Registry struct {
	fetchers map[string]Fetcher
}

// Options carries the shared fetch tunables.
type Options struct {
	MaxRetries int
}

// NewRegistry builds the fetcher registry for all supported providers.
func NewRegistry(opts Options) *Registry {
	hc := newHTTPDoer(opts)
	return &Registry{
		fetchers: map[string]Fetcher{
			account.ProviderAWS:          &AWSFetcher{},
			account.ProviderAzure:        &AzureFetcher{},
			account.ProviderGCP:          &GCPFetcher{},
			account.ProviderDigitalOcean: NewDigitalOceanFetcher(hc),
			account.ProviderLinode:       NewLinodeFetcher(hc),
			account.ProviderVercel:       NewVercelFetcher(hc),
			account.ProviderOpenAI:       NewOpenAIFetcher(hc),
		},
	}
}

// NewStaticRegistry builds a registry from explicit fetchers. Used by tests
// and by callers that only sync a subset of providers.
func NewStaticRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[string]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.fetchers[f.ProviderID()] = f
	}
	return r
}

// ForProvider returns the fetcher for a provider ID.
func (r *Registry) ForProvider(providerID string) (Fetcher, bool) {
	f, ok := r.fetchers[providerID]
	return f, ok
}
