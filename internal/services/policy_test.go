package services

import (
	"testing"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
)

func testPolicy() DetectorPolicy {
	return DetectorPolicy{
		LowThresholdPct: 20,
		MediumPct:       50,
		HighPct:         100,
		CriticalPct:     200,
		TopContributors: 5,
		TrendDays:       3,
		MinSamples:      7,
	}
}

func TestPolicySeverityFor(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		magnitude float64
		want      string
	}{
		{25, anomaly.SeverityLow},
		{49.9, anomaly.SeverityLow},
		{50, anomaly.SeverityMedium}, // boundary lands on the higher bucket
		{75, anomaly.SeverityMedium},
		{100, anomaly.SeverityHigh},
		{150, anomaly.SeverityHigh},
		{200, anomaly.SeverityCritical},
		{300, anomaly.SeverityCritical},
	}
	for _, tt := range tests {
		if got := p.SeverityFor(tt.magnitude); got != tt.want {
			t.Errorf("SeverityFor(%v) = %q, want %q", tt.magnitude, got, tt.want)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DetectorPolicy)
		wantErr bool
	}{
		{"defaults", func(p *DetectorPolicy) {}, false},
		{"zero low threshold", func(p *DetectorPolicy) { p.LowThresholdPct = 0 }, true},
		{"medium above high", func(p *DetectorPolicy) { p.MediumPct = 150 }, true},
		{"equal cut points", func(p *DetectorPolicy) { p.HighPct = p.CriticalPct }, true},
		{"no contributors", func(p *DetectorPolicy) { p.TopContributors = 0 }, true},
		{"trend of one day", func(p *DetectorPolicy) { p.TrendDays = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
