package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/domain/notification"
	"github.com/costpulse/costpulse/internal/pkg/logger"
)

// WebhookSink delivers anomaly notifications as JSON POSTs to a configured
// endpoint. It is the only outbound surface besides provider billing APIs.
type WebhookSink struct {
	url     string
	channel string
	client  *http.Client
	log     *logger.Logger
}

// NewSink builds the configured notification sink, or a no-op one when no
// webhook URL is set.
func NewSink(cfg config.NotifyConfig, log *logger.Logger) notification.Sink {
	if cfg.WebhookURL == "" {
		return notification.NopSink{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		url:     cfg.WebhookURL,
		channel: cfg.Channel,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type webhookPayload struct {
	Channel string         `json:"channel,omitempty"`
	Text    string         `json:"text"`
	Event   *anomaly.Event `json:"event"`
}

// NotifyAnomaly posts one anomaly event to the webhook.
func (s *WebhookSink) NotifyAnomaly(ctx context.Context, ev *anomaly.Event) error {
	text := fmt.Sprintf("[%s] %s anomaly on %s/%s: expected $%.2f, actual $%.2f (%+.1f%%)",
		ev.Severity, ev.AnomalyType, ev.ProviderID, ev.ServiceName,
		ev.ExpectedCost, ev.ActualCost, ev.VariancePercent)

	body, err := json.Marshal(webhookPayload{Channel: s.channel, Text: text, Event: ev})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	s.log.WithFields(map[string]interface{}{"anomaly_id": ev.ID}).Debug("anomaly notification delivered")
	return nil
}
