package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/domain/anomaly"
)

// DetectorPolicy holds the anomaly classification tunables. Severity cut
// points must stay monotonic so every magnitude maps to exactly one bucket;
// boundary values land on the higher bucket.
type DetectorPolicy struct {
	LowThresholdPct float64 `yaml:"low_threshold_pct"`
	MediumPct       float64 `yaml:"medium_pct"`
	HighPct         float64 `yaml:"high_pct"`
	CriticalPct     float64 `yaml:"critical_pct"`
	TopContributors int     `yaml:"top_contributors"`
	TrendDays       int     `yaml:"trend_days"`
	MinSamples      int     `yaml:"min_samples"`
}

// DefaultPolicy derives the policy from configuration.
func DefaultPolicy(cfg config.DetectorConfig, baseline config.BaselineConfig) DetectorPolicy {
	return DetectorPolicy{
		LowThresholdPct: cfg.LowThresholdPct,
		MediumPct:       50,
		HighPct:         100,
		CriticalPct:     200,
		TopContributors: cfg.TopContributors,
		TrendDays:       cfg.TrendDays,
		MinSamples:      baseline.MinSamples,
	}
}

// LoadPolicy returns the default policy overridden by the YAML file at
// path, when one is configured.
func LoadPolicy(cfg config.DetectorConfig, baseline config.BaselineConfig) (DetectorPolicy, error) {
	p := DefaultPolicy(cfg, baseline)
	if cfg.PolicyPath == "" {
		return p, nil
	}

	raw, err := os.ReadFile(cfg.PolicyPath)
	if err != nil {
		return p, fmt.Errorf("read detector policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse detector policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate enforces monotonic severity cut points.
func (p DetectorPolicy) Validate() error {
	if !(p.LowThresholdPct > 0 && p.LowThresholdPct < p.MediumPct &&
		p.MediumPct < p.HighPct && p.HighPct < p.CriticalPct) {
		return fmt.Errorf("detector policy thresholds must be strictly increasing")
	}
	if p.TopContributors < 1 {
		return fmt.Errorf("detector policy top_contributors must be at least 1")
	}
	if p.TrendDays < 2 {
		return fmt.Errorf("detector policy trend_days must be at least 2")
	}
	return nil
}

// SeverityFor maps a deviation magnitude (absolute percent) to a severity.
func (p DetectorPolicy) SeverityFor(magnitudePct float64) string {
	switch {
	case magnitudePct >= p.CriticalPct:
		return anomaly.SeverityCritical
	case magnitudePct >= p.HighPct:
		return anomaly.SeverityHigh
	case magnitudePct >= p.MediumPct:
		return anomaly.SeverityMedium
	default:
		return anomaly.SeverityLow
	}
}
