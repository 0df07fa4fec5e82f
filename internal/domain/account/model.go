package account

import "time"

// Account is a connected billing account for a single cloud provider.
// Credentials are never stored on the model itself; CredentialsRef points
// into the credentials store.
type Account struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ProviderID     string     `json:"provider_id"`
	Name           string     `json:"name"`
	CredentialsRef string     `json:"-"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty"`
}

// Supported provider identifiers. The set is fixed at build time; adding a
// provider means adding an adapter and a fetch client alongside the constant.
const (
	ProviderAWS          = "aws"
	ProviderAzure        = "azure"
	ProviderGCP          = "gcp"
	ProviderDigitalOcean = "digitalocean"
	ProviderLinode       = "linode"
	ProviderVercel       = "vercel"
	ProviderOpenAI       = "openai"
)

// ProviderIDs lists every supported provider in a stable order.
func ProviderIDs() []string {
	return []string{
		ProviderAWS,
		ProviderAzure,
		ProviderGCP,
		ProviderDigitalOcean,
		ProviderLinode,
		ProviderVercel,
		ProviderOpenAI,
	}
}

// ValidProviderID reports whether id names a supported provider.
func ValidProviderID(id string) bool {
	switch id {
	case ProviderAWS, ProviderAzure, ProviderGCP, ProviderDigitalOcean,
		ProviderLinode, ProviderVercel, ProviderOpenAI:
		return true
	}
	return false
}
