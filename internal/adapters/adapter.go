// Package adapters converts raw provider API payloads into the canonical
// NormalizedCostSnapshot. Adapters are pure: they never touch the network,
// never panic on missing optional fields, and map every malformed payload to
// a NormalizationError naming the offending field.
package adapters

import (
	"encoding/json"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
)

// Adapter normalizes one provider's raw cost payload.
type Adapter interface {
	// ProviderID returns the provider this adapter handles
	ProviderID() string

	// Normalize converts a previously-fetched raw payload into the
	// canonical snapshot. Pure and total for well-typed JSON: missing
	// optional fields become zero defaults.
	Normalize(accountID int64, raw json.RawMessage, now time.Time) (*snapshot.NormalizedCostSnapshot, error)
}

// registry is the immutable adapter set, built once at package init.
// Adding a provider means adding an entry here plus its adapter and fetch
// client, nothing else.
var registry = map[string]Adapter{
	account.ProviderAWS:          &AWSAdapter{},
	account.ProviderAzure:        &AzureAdapter{},
	account.ProviderGCP:          &GCPAdapter{},
	account.ProviderDigitalOcean: &DigitalOceanAdapter{},
	account.ProviderLinode:       &LinodeAdapter{},
	account.ProviderVercel:       &VercelAdapter{},
	account.ProviderOpenAI:       &OpenAIAdapter{},
}

// ForProvider returns the adapter registered for a provider ID.
func ForProvider(providerID string) (Adapter, bool) {
	a, ok := registry[providerID]
	return a, ok
}
