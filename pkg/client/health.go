package client

import (
	"context"
	"net/http"
)

// HealthService checks server health.
type HealthService struct {
	client *Client
}

// Check returns the liveness status.
func (s *HealthService) Check(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	err := s.client.doRequest(ctx, http.MethodGet, "/healthz", nil, &status)
	return status, err
}

// Ready returns the readiness status; an error means not ready.
func (s *HealthService) Ready(ctx context.Context) (map[string]string, error) {
	var status map[string]string
	err := s.client.doRequest(ctx, http.MethodGet, "/readyz", nil, &status)
	return status, err
}
