package client

import (
	"context"
	"fmt"
	"net/http"
)

// AccountService manages billing accounts.
type AccountService struct {
	client *Client
}

// CreateAccountRequest registers a new billing account.
type CreateAccountRequest struct {
	ProviderID  string            `json:"provider_id"`
	Name        string            `json:"name"`
	Credentials map[string]string `json:"credentials"`
}

// List returns all accounts visible to the caller.
func (s *AccountService) List(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/accounts", nil, &accounts)
	return accounts, err
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id int64) (*Account, error) {
	var account Account
	err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", id), nil, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Create registers a new account.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	var account Account
	err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/accounts", req, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete removes an account and all derived data.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%d", id), nil, nil)
}

// LatestSnapshot returns the account's most recent cost snapshot.
func (s *AccountService) LatestSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	var snap Snapshot
	err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d/snapshot", id), nil, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// DailyCosts returns the account's per-day totals for the trailing window.
func (s *AccountService) DailyCosts(ctx context.Context, id int64, days int) ([]DailyCost, error) {
	var costs []DailyCost
	path := fmt.Sprintf("/api/v1/accounts/%d/costs/daily?days=%d", id, days)
	err := s.client.doRequest(ctx, http.MethodGet, path, nil, &costs)
	return costs, err
}

// Providers returns the supported provider identifiers.
func (s *AccountService) Providers(ctx context.Context) ([]string, error) {
	var providers []string
	err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/providers", nil, &providers)
	return providers, err
}
