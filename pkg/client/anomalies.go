package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AnomalyService queries and resolves anomaly events.
type AnomalyService struct {
	client *Client
}

// AnomalyFilter narrows anomaly listings.
type AnomalyFilter struct {
	AccountID int64
	Status    string
	Severity  string
	Type      string
	Page      int
	PageSize  int
}

// List returns anomaly events newest first.
func (s *AnomalyService) List(ctx context.Context, filter AnomalyFilter) (*Paginated[AnomalyEvent], error) {
	q := url.Values{}
	if filter.AccountID > 0 {
		q.Set("account_id", strconv.FormatInt(filter.AccountID, 10))
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Severity != "" {
		q.Set("severity", filter.Severity)
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}

	path := "/api/v1/anomalies"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page Paginated[AnomalyEvent]
	err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one anomaly event.
func (s *AnomalyService) Get(ctx context.Context, id string) (*AnomalyEvent, error) {
	var ev AnomalyEvent
	err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/anomalies/"+id, nil, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateStatus applies a resolution action.
func (s *AnomalyService) UpdateStatus(ctx context.Context, id, status string) (*AnomalyEvent, error) {
	var ev AnomalyEvent
	body := map[string]string{"status": status}
	err := s.client.doRequest(ctx, http.MethodPut, "/api/v1/anomalies/"+id+"/status", body, &ev)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Summary returns open-event counts per severity for an account.
func (s *AnomalyService) Summary(ctx context.Context, accountID int64) (map[string]int, error) {
	var counts map[string]int
	path := fmt.Sprintf("/api/v1/anomalies/summary?account_id=%d", accountID)
	err := s.client.doRequest(ctx, http.MethodGet, path, nil, &counts)
	return counts, err
}
