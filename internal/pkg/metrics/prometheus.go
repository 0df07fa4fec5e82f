package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "costpulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// Sync metrics
	syncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of account syncs",
		},
		[]string{"provider", "status"},
	)

	syncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "costpulse",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of one account sync in seconds",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	fetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "sync",
			Name:      "fetch_retries_total",
			Help:      "Total number of retried provider fetch attempts",
		},
		[]string{"provider"},
	)

	// Anomaly metrics
	anomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "anomaly",
			Name:      "detected_total",
			Help:      "Total number of anomaly events created",
		},
		[]string{"provider", "type", "severity"},
	)

	// Cache metrics
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Snapshot cache hits",
		},
		[]string{"provider"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "costpulse",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Snapshot cache misses",
		},
		[]string{"provider"},
	)
)

// RecordSync records the outcome and duration of one account sync.
func RecordSync(provider, status string, d time.Duration) {
	syncTotal.WithLabelValues(provider, status).Inc()
	syncDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFetchRetry counts one retried fetch attempt.
func RecordFetchRetry(provider string) {
	fetchRetriesTotal.WithLabelValues(provider).Inc()
}

// RecordAnomaly counts one created anomaly event.
func RecordAnomaly(provider, anomalyType, severity string) {
	anomaliesDetected.WithLabelValues(provider, anomalyType, severity).Inc()
}

// RecordCacheHit counts one snapshot cache hit.
func RecordCacheHit(provider string) {
	cacheHits.WithLabelValues(provider).Inc()
}

// RecordCacheMiss counts one snapshot cache miss.
func RecordCacheMiss(provider string) {
	cacheMisses.WithLabelValues(provider).Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for HTTP metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request count and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := strconv.Itoa(rec.status)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
