package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/domain/baseline"
	"github.com/costpulse/costpulse/internal/domain/notification"
	"github.com/costpulse/costpulse/internal/domain/snapshot"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/metrics"
)

// AnomalyDetector compares fresh cost samples against stored baselines and
// materializes anomaly events. Detection always runs against the baselines
// as they stood before today's samples were folded in.
type AnomalyDetector struct {
	repo   anomaly.Repository
	policy DetectorPolicy
	sink   notification.Sink
	log    *logger.Logger
}

// NewAnomalyDetector creates a detector. sink may be notification.NopSink{}.
func NewAnomalyDetector(repo anomaly.Repository, policy DetectorPolicy, sink notification.Sink, log *logger.Logger) *AnomalyDetector {
	if sink == nil {
		sink = notification.NopSink{}
	}
	return &AnomalyDetector{repo: repo, policy: policy, sink: sink, log: log}
}

// Detect evaluates every sampled target against its baseline and records one
// event per (account, provider, service, day) deviation. Cold baselines are
// skipped entirely. Returns the events created or refreshed in this run.
func (d *AnomalyDetector) Detect(
	ctx context.Context,
	snap *snapshot.NormalizedCostSnapshot,
	baselines map[string]*baseline.AnomalyBaseline,
	samples map[string]float64,
	now time.Time,
) ([]*anomaly.Event, error) {
	day := now.UTC().Truncate(24 * time.Hour)

	// Deterministic iteration keeps event ordering stable across runs.
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	var events []*anomaly.Event
	for _, name := range names {
		b := baselines[name]
		if b.Cold(d.policy.MinSamples) {
			continue
		}
		if b.Mean <= 0 {
			continue
		}

		actual := samples[name]
		variancePct := (actual - b.Mean) / b.Mean * 100
		magnitude := math.Abs(variancePct)
		if magnitude < d.policy.LowThresholdPct {
			continue
		}

		anomalyType := anomaly.TypeSpike
		if variancePct < 0 {
			anomalyType = anomaly.TypeDrop
		}
		if trend, err := d.isTrend(ctx, snap.AccountID, snap.ProviderID, name, anomalyType, day); err != nil {
			return events, err
		} else if trend {
			anomalyType = anomaly.TypeTrend
		}

		ev, err := d.record(ctx, snap, name, day, anomalyType, b.Mean, actual, variancePct)
		if err != nil {
			return events, err
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

// isTrend reports whether the same direction of deviation has now persisted
// for the configured number of consecutive days.
func (d *AnomalyDetector) isTrend(ctx context.Context, accountID int64, providerID, serviceName, anomalyType string, day time.Time) (bool, error) {
	if anomalyType == anomaly.TypeDrop {
		// Trends describe sustained growth; drops stay drops.
		return false, nil
	}
	prior, err := d.repo.CountConsecutiveDeviant(ctx, accountID, providerID, serviceName, anomaly.TypeSpike, day)
	if err != nil {
		return false, errors.DatabaseError("failed to count deviant days", err)
	}
	return prior >= d.policy.TrendDays-1, nil
}

// record creates the event for one deviation, or refreshes the magnitudes of
// an existing open event for the same key. Events past open are never
// touched, so resolving an anomaly sticks even if it recurs the same day.
func (d *AnomalyDetector) record(
	ctx context.Context,
	snap *snapshot.NormalizedCostSnapshot,
	serviceName string,
	day time.Time,
	anomalyType string,
	expected, actual, variancePct float64,
) (*anomaly.Event, error) {
	existing, err := d.repo.FindByKey(ctx, snap.AccountID, snap.ProviderID, serviceName, day)
	if err != nil {
		return nil, errors.DatabaseError("failed to look up anomaly event", err)
	}
	if existing != nil {
		if existing.ResolutionStatus != anomaly.StatusOpen {
			return nil, nil
		}
		existing.AnomalyType = anomalyType
		existing.ExpectedCost = expected
		existing.ActualCost = actual
		existing.VariancePercent = variancePct
		existing.ContributingServices = d.contributors(snap, serviceName)
		existing.UpdatedAt = time.Now().UTC()
		if err := d.repo.Update(ctx, existing); err != nil {
			return nil, errors.DatabaseError("failed to refresh anomaly event", err)
		}
		return existing, nil
	}

	ev := &anomaly.Event{
		ID:                   uuid.New().String(),
		AccountID:            snap.AccountID,
		ProviderID:           snap.ProviderID,
		ServiceName:          serviceName,
		DetectedDate:         day,
		AnomalyType:          anomalyType,
		Severity:             d.policy.SeverityFor(math.Abs(variancePct)),
		ExpectedCost:         expected,
		ActualCost:           actual,
		VariancePercent:      variancePct,
		ContributingServices: d.contributors(snap, serviceName),
		ResolutionStatus:     anomaly.StatusOpen,
		CreatedAt:            time.Now().UTC(),
	}
	if err := d.repo.Create(ctx, ev); err != nil {
		return nil, errors.DatabaseError("failed to create anomaly event", err)
	}

	metrics.RecordAnomaly(ev.ProviderID, ev.AnomalyType, ev.Severity)
	d.log.WithFields(map[string]interface{}{
		"account_id": ev.AccountID,
		"provider":   ev.ProviderID,
		"service":    ev.ServiceName,
		"type":       ev.AnomalyType,
		"severity":   ev.Severity,
		"variance":   ev.VariancePercent,
	}).Info("anomaly detected")

	d.notify(ev)
	return ev, nil
}

// notify pushes high and critical events to the sink. Delivery is best
// effort; a sink failure never fails the sync.
func (d *AnomalyDetector) notify(ev *anomaly.Event) {
	if ev.Severity != anomaly.SeverityHigh && ev.Severity != anomaly.SeverityCritical {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.sink.NotifyAnomaly(ctx, ev); err != nil {
			d.log.WithError(err).Warn("anomaly notification failed")
		}
	}()
}

// contributors explains an account-total anomaly by the services whose spend
// grew the most against the snapshot's own change percentages. Per-service
// anomalies carry only the service itself.
func (d *AnomalyDetector) contributors(snap *snapshot.NormalizedCostSnapshot, serviceName string) []anomaly.ContributingService {
	if serviceName != baseline.TotalServiceName {
		for _, svc := range snap.Services {
			if svc.Name != serviceName {
				continue
			}
			prev := svc.Cost
			if svc.ChangePct != 0 {
				prev = svc.Cost / (1 + svc.ChangePct/100)
			}
			return []anomaly.ContributingService{{
				Name:        svc.Name,
				Delta:       svc.Cost - prev,
				CurrentCost: svc.Cost,
			}}
		}
		return nil
	}

	contrib := make([]anomaly.ContributingService, 0, len(snap.Services))
	for _, svc := range snap.Services {
		if svc.Name == snapshot.OtherServiceName || svc.ChangePct == 0 {
			continue
		}
		// ChangePct is relative to the previous cost, so previous = cost / (1 + pct/100).
		prev := svc.Cost / (1 + svc.ChangePct/100)
		delta := svc.Cost - prev
		if delta <= 0 {
			continue
		}
		contrib = append(contrib, anomaly.ContributingService{
			Name:        svc.Name,
			Delta:       delta,
			CurrentCost: svc.Cost,
		})
	}
	sort.Slice(contrib, func(i, j int) bool {
		di, dj := math.Abs(contrib[i].Delta), math.Abs(contrib[j].Delta)
		if di != dj {
			return di > dj
		}
		return contrib[i].Name < contrib[j].Name
	})
	if len(contrib) > d.policy.TopContributors {
		contrib = contrib[:d.policy.TopContributors]
	}
	return contrib
}
