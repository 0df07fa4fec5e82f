package adapters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/pkg/errors"
)

func TestAWSNormalize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	raw := json.RawMessage(`{
		"ResultsByTime": [
			{
				"TimePeriod": {"Start": "2025-05-20", "End": "2025-05-21"},
				"Total": {"UnblendedCost": {"Amount": "40.00", "Unit": "USD"}}
			},
			{
				"TimePeriod": {"Start": "2025-06-10", "End": "2025-06-11"},
				"Groups": [
					{"Keys": ["Amazon EC2"], "Metrics": {"UnblendedCost": {"Amount": "30.00", "Unit": "USD"}}},
					{"Keys": ["Amazon S3"], "Metrics": {"UnblendedCost": {"Amount": "10.00", "Unit": "USD"}}}
				]
			},
			{
				"TimePeriod": {"Start": "2025-06-11", "End": "2025-06-12"},
				"Groups": [
					{"Keys": ["Amazon EC2"], "Metrics": {"UnblendedCost": {"Amount": "35.00", "Unit": "USD"}}}
				]
			}
		],
		"ForecastedAmount": "160.00"
	}`)

	adapter := &AWSAdapter{}
	snap, err := adapter.Normalize(7, raw, now)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if snap.AccountID != 7 || snap.ProviderID != "aws" {
		t.Errorf("identity = (%d, %s), want (7, aws)", snap.AccountID, snap.ProviderID)
	}
	if snap.CurrentMonthCost != 75 {
		t.Errorf("CurrentMonthCost = %v, want 75", snap.CurrentMonthCost)
	}
	if snap.LastMonthCost != 40 {
		t.Errorf("LastMonthCost = %v, want 40", snap.LastMonthCost)
	}
	if snap.ForecastCost != 160 {
		t.Errorf("ForecastCost = %v, want 160", snap.ForecastCost)
	}
	if len(snap.DailyCosts) != 2 {
		t.Fatalf("len(DailyCosts) = %d, want 2", len(snap.DailyCosts))
	}
	if snap.DailyCosts[0].Cost != 40 || snap.DailyCosts[1].Cost != 35 {
		t.Errorf("daily costs = %v/%v, want 40/35", snap.DailyCosts[0].Cost, snap.DailyCosts[1].Cost)
	}

	ec2 := 0.0
	for _, svc := range snap.Services {
		if svc.Name == "Amazon EC2" {
			ec2 = svc.Cost
		}
	}
	if ec2 != 65 {
		t.Errorf("EC2 cost = %v, want 65", ec2)
	}
}

func TestAWSNormalizeMissingTimePeriod(t *testing.T) {
	raw := json.RawMessage(`{"ResultsByTime": [{"Groups": []}]}`)

	_, err := (&AWSAdapter{}).Normalize(1, raw, time.Now())
	if err == nil {
		t.Fatal("expected error for missing TimePeriod")
	}
	if errors.Code(err) != "NORMALIZATION_ERROR" {
		t.Errorf("error code = %s, want NORMALIZATION_ERROR", errors.Code(err))
	}
}

func TestAWSNormalizeEmptyPayload(t *testing.T) {
	snap, err := (&AWSAdapter{}).Normalize(1, json.RawMessage(`{}`), time.Now())
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if snap.CurrentMonthCost != 0 || len(snap.Services) != 0 || len(snap.DailyCosts) != 0 {
		t.Errorf("empty payload should normalize to zero snapshot, got %+v", snap)
	}
}

func TestAdapterRegistryCoversAllProviders(t *testing.T) {
	for _, id := range []string{"aws", "azure", "gcp", "digitalocean", "linode", "vercel", "openai"} {
		a, ok := ForProvider(id)
		if !ok {
			t.Errorf("no adapter registered for %s", id)
			continue
		}
		if a.ProviderID() != id {
			t.Errorf("adapter for %s reports %s", id, a.ProviderID())
		}
	}
	if _, ok := ForProvider("heroku"); ok {
		t.Error("unexpected adapter for unknown provider")
	}
}
