package services

import (
	"context"
	"math"
	"time"

	"github.com/costpulse/costpulse/internal/domain/baseline"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
)

// BaselineEngine maintains exponentially weighted per-service cost baselines.
// Old observations decay with a configurable half-life so the baseline tracks
// genuine spend shifts without a full history replay.
type BaselineEngine struct {
	repo         baseline.Repository
	alpha        float64
	halfLifeDays float64
	minSamples   int
	log          *logger.Logger
}

// NewBaselineEngine builds an engine with decay factor derived from the
// half-life: alpha = 1 - 0.5^(1/halfLifeDays).
func NewBaselineEngine(repo baseline.Repository, halfLifeDays float64, minSamples int, log *logger.Logger) *BaselineEngine {
	if halfLifeDays <= 0 {
		halfLifeDays = 14
	}
	return &BaselineEngine{
		repo:         repo,
		alpha:        1 - math.Pow(0.5, 1/halfLifeDays),
		halfLifeDays: halfLifeDays,
		minSamples:   minSamples,
		log:          log,
	}
}

// MinSamples reports the cold-start suppression floor.
func (e *BaselineEngine) MinSamples() int { return e.minSamples }

// Load fetches all baselines for an account keyed by service name. The
// account total baseline is stored under baseline.TotalServiceName.
func (e *BaselineEngine) Load(ctx context.Context, accountID int64, providerID string) (map[string]*baseline.AnomalyBaseline, error) {
	all, err := e.repo.GetAll(ctx, accountID, providerID)
	if err != nil {
		return nil, errors.DatabaseError("failed to load baselines", err)
	}
	return all, nil
}

// Samples derives the daily cost observations from a snapshot: one per
// service (month-to-date cost spread over elapsed days) and one for the
// account total (the latest daily cost).
func (e *BaselineEngine) Samples(snap *snapshot.NormalizedCostSnapshot, now time.Time) map[string]float64 {
	samples := make(map[string]float64, len(snap.Services)+1)

	days := float64(now.UTC().Day())
	if days < 1 {
		days = 1
	}
	for _, svc := range snap.Services {
		if svc.Name == snapshot.OtherServiceName {
			continue
		}
		samples[svc.Name] = svc.Cost / days
	}

	if daily, ok := snap.LatestDailyCost(); ok {
		samples[baseline.TotalServiceName] = daily.Cost
	} else if snap.CurrentMonthCost > 0 {
		samples[baseline.TotalServiceName] = snap.CurrentMonthCost / days
	}
	return samples
}

// Fold absorbs one day's samples into the stored baselines. A baseline is
// updated at most once per UTC day; repeated syncs of the same day leave it
// untouched so the whole pipeline stays idempotent.
func (e *BaselineEngine) Fold(ctx context.Context, acctID int64, providerID string, baselines map[string]*baseline.AnomalyBaseline, samples map[string]float64, now time.Time) error {
	day := now.UTC().Truncate(24 * time.Hour)

	for name, x := range samples {
		b := baselines[name]
		if b != nil && b.LastUpdated.UTC().Truncate(24*time.Hour).Equal(day) {
			continue
		}
		next := e.update(b, acctID, providerID, name, x, day)
		if err := e.repo.Upsert(ctx, next); err != nil {
			return errors.DatabaseError("failed to persist baseline", err)
		}
		baselines[name] = next
	}
	return nil
}

// update applies one observation. The exponentially weighted recurrence is
//
//	delta = x - mean
//	mean' = mean + alpha*delta
//	var'  = (1-alpha) * (var + alpha*delta^2)
//
// which keeps the variance estimate non-negative without storing history.
func (e *BaselineEngine) update(b *baseline.AnomalyBaseline, acctID int64, providerID, name string, x float64, day time.Time) *baseline.AnomalyBaseline {
	if b == nil {
		return &baseline.AnomalyBaseline{
			AccountID:   acctID,
			ProviderID:  providerID,
			ServiceName: name,
			Mean:        x,
			StdDev:      0,
			SampleCount: 1,
			LastUpdated: day,
		}
	}

	delta := x - b.Mean
	variance := b.StdDev * b.StdDev
	mean := b.Mean + e.alpha*delta
	variance = (1 - e.alpha) * (variance + e.alpha*delta*delta)

	return &baseline.AnomalyBaseline{
		AccountID:   b.AccountID,
		ProviderID:  b.ProviderID,
		ServiceName: b.ServiceName,
		Mean:        mean,
		StdDev:      math.Sqrt(variance),
		SampleCount: b.SampleCount + 1,
		LastUpdated: day,
	}
}

// Reset drops all baselines for an account, forcing a cold restart.
func (e *BaselineEngine) Reset(ctx context.Context, accountID int64) error {
	if err := e.repo.DeleteByAccount(ctx, accountID); err != nil {
		return errors.DatabaseError("failed to delete baselines", err)
	}
	e.log.WithFields(map[string]interface{}{"account_id": accountID}).Info("baselines reset")
	return nil
}
