package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/utils"
)

// ipLimiters hands out one token bucket per client IP. Idle buckets are
// reaped so the map does not grow with every address ever seen.
type ipLimiters struct {
	mu    sync.Mutex
	seen  map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func newIPLimiters(requestsPerSecond float64, burst int) *ipLimiters {
	return &ipLimiters{
		seen:  make(map[string]*rate.Limiter),
		limit: rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.seen[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.seen[ip] = lim
	}
	return lim
}

func (l *ipLimiters) reap() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, lim := range l.seen {
		// A full bucket means the IP has been quiet for a while.
		if lim.Tokens() == float64(l.burst) {
			delete(l.seen, ip)
		}
	}
}

// RateLimit bounds request rate per client IP across the whole API.
func RateLimit(requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newIPLimiters(requestsPerSecond, burst)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiters.reap()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(r.RemoteAddr).Allow() {
				utils.WriteError(w, errors.RateLimited("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
