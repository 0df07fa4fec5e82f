package dto

import (
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
)

// CreateAccountRequest registers a new billing account. Credentials are
// provider-specific key/value pairs; they are sealed at rest and never
// echoed back.
type CreateAccountRequest struct {
	ProviderID  string            `json:"provider_id" validate:"required"`
	Name        string            `json:"name" validate:"required,max=255"`
	Credentials map[string]string `json:"credentials" validate:"required"`
}

// UpdateCredentialsRequest replaces an account's stored credentials.
type UpdateCredentialsRequest struct {
	Credentials map[string]string `json:"credentials" validate:"required"`
}

// AccountDTO is the API shape of an account.
type AccountDTO struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	ProviderID   string     `json:"provider_id"`
	Name         string     `json:"name"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewAccountDTO maps a domain account, dropping the credentials reference.
func NewAccountDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:           a.ID,
		UserID:       a.UserID,
		ProviderID:   a.ProviderID,
		Name:         a.Name,
		LastSyncedAt: a.LastSyncedAt,
		CreatedAt:    a.CreatedAt,
	}
}
