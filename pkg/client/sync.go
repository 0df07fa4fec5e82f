package client

import (
	"context"
	"fmt"
	"net/http"
)

// SyncService triggers cost syncs.
type SyncService struct {
	client *Client
}

// All syncs every account and returns the per-account outcomes.
func (s *SyncService) All(ctx context.Context) (*SyncSummary, error) {
	var summary SyncSummary
	err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/sync", nil, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Account syncs one account.
func (s *SyncService) Account(ctx context.Context, id int64) (*SyncResult, error) {
	var result SyncResult
	err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/sync", id), nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
