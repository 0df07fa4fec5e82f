package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/pkg/errors"
)

func TestGCPNormalize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	raw := json.RawMessage(`{
		"rows": [
			{"service_name": "Compute Engine", "cost_date": "2025-06-10", "daily_cost": 40, "credits": 0, "currency": "USD"},
			{"service_name": "BigQuery", "cost_date": "2025-06-11", "daily_cost": 10, "credits": -2, "currency": "USD"},
			{"service_name": "Compute Engine", "cost_date": "2025-05-20", "daily_cost": 30, "credits": 0, "currency": "USD"}
		]
	}`)

	snap, err := (&GCPAdapter{}).Normalize(5, raw, now)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if snap.AccountID != 5 || snap.ProviderID != "gcp" {
		t.Errorf("identity = (%d, %s), want (5, gcp)", snap.AccountID, snap.ProviderID)
	}
	if snap.CurrentMonthCost != 50 {
		t.Errorf("CurrentMonthCost = %v, want 50", snap.CurrentMonthCost)
	}
	if snap.LastMonthCost != 30 {
		t.Errorf("LastMonthCost = %v, want 30", snap.LastMonthCost)
	}
	if snap.Credits != 2 {
		t.Errorf("Credits = %v, want 2", snap.Credits)
	}
	if len(snap.DailyCosts) != 2 {
		t.Fatalf("len(DailyCosts) = %d, want 2", len(snap.DailyCosts))
	}

	bq := 0.0
	for _, svc := range snap.Services {
		if svc.Name == "BigQuery" {
			bq = svc.Cost
		}
	}
	if bq != 10 {
		t.Errorf("BigQuery cost = %v, want 10", bq)
	}
}

func TestGCPNormalizeBadCostDate(t *testing.T) {
	raw := json.RawMessage(`{
		"rows": [{"service_name": "Compute Engine", "cost_date": "June 10th", "daily_cost": 40}]
	}`)

	_, err := (&GCPAdapter{}).Normalize(1, raw, time.Now())
	if err == nil {
		t.Fatal("expected error for unparseable cost_date")
	}
	if errors.Code(err) != "NORMALIZATION_ERROR" {
		t.Errorf("error code = %s, want NORMALIZATION_ERROR", errors.Code(err))
	}
}

func TestGCPNormalizeEmptyPayload(t *testing.T) {
	snap, err := (&GCPAdapter{}).Normalize(1, json.RawMessage(`{}`), time.Now())
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if snap.CurrentMonthCost != 0 || len(snap.Services) != 0 || len(snap.DailyCosts) != 0 {
		t.Errorf("empty payload should normalize to zero snapshot, got %+v", snap)
	}
}
