// Package notification defines the outbound alerting boundary. Delivery
// guarantees belong to the sink implementation, not the engine: the
// orchestrator calls NotifyAnomaly fire-and-forget for newly created high
// and critical events.
package notification

import (
	"context"

	"github.com/costpulse/costpulse/internal/domain/anomaly"
)

// Sink receives newly detected anomaly events.
type Sink interface {
	NotifyAnomaly(ctx context.Context, e *anomaly.Event) error
}

// NopSink discards notifications. Used when no webhook is configured.
type NopSink struct{}

func (NopSink) NotifyAnomaly(ctx context.Context, e *anomaly.Event) error { return nil }
