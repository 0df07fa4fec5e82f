package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/metrics"
)

// errInvalidBody marks an upstream response that is not valid JSON.
var errInvalidBody = fmt.Errorf("response body is not valid JSON")

// httpDoer is the shared HTTP layer for the REST-based fetch clients.
// It retries transient failures with exponential backoff, fails fast on
// credential errors, throttles per provider, and trips a per-provider
// circuit breaker after repeated upstream failures.
type httpDoer struct {
	client     *http.Client
	maxRetries uint64

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

func newHTTPDoer(opts Options) *httpDoer {
	maxRetries := uint64(opts.MaxRetries)
	if maxRetries == 0 {
		maxRetries = 3
	}
	return &httpDoer{
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (d *httpDoer) breaker(providerID string) *gobreaker.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[providerID]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    providerID,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
		d.breakers[providerID] = cb
	}
	return cb
}

func (d *httpDoer) limiter(providerID string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[providerID]
	if !ok {
		// Billing APIs are low-volume; 5 req/s with a small burst is well
		// under every provider's documented limit.
		l = rate.NewLimiter(rate.Limit(5), 10)
		d.limiters[providerID] = l
	}
	return l
}

// GetJSON performs an authenticated GET and returns the response body.
// newReq is called per attempt so request bodies are never reused.
func (d *httpDoer) GetJSON(ctx context.Context, providerID string, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	attempt := 0

	operation := func() error {
		if err := d.limiter(providerID).Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > 1 {
			metrics.RecordFetchRetry(providerID)
		}

		result, err := d.breaker(providerID).Execute(func() (interface{}, error) {
			req, err := newReq(ctx)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")

			resp, err := d.client.Do(req)
			if err != nil {
				return nil, err // network error, retryable
			}
			defer resp.Body.Close()

			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				return b, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, backoff.Permanent(errors.AuthenticationError(providerID,
					fmt.Errorf("provider returned %d", resp.StatusCode)))
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return nil, fmt.Errorf("provider returned %d", resp.StatusCode)
			default:
				return nil, backoff.Permanent(fmt.Errorf("provider returned unexpected status %d", resp.StatusCode))
			}
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(errors.TransientFetchError(providerID, err))
			}
			return err
		}

		body = result.([]byte)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			return nil, errors.TimeoutError(providerID, ctx.Err())
		}
		if errors.IsAuth(err) || errors.IsTransient(err) {
			return nil, err
		}
		return nil, errors.TransientFetchError(providerID, err)
	}

	return body, nil
}
