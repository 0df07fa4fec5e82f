package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/costpulse/costpulse/internal/api/handlers"
	"github.com/costpulse/costpulse/internal/api/middleware"
	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Account  *handlers.AccountHandler
	Sync     *handlers.SyncHandler
	Snapshot *handlers.SnapshotHandler
	Anomaly  *handlers.AnomalyHandler
	Provider *handlers.ProviderHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200))
	r.Use(metrics.Middleware)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

		r.Get("/api/v1/providers", h.Provider.List)

		r.Route("/api/v1/accounts", func(r chi.Router) {
			r.Get("/", h.Account.List)
			r.Post("/", h.Account.Create)
			r.Get("/{id}", h.Account.Get)
			r.Put("/{id}/credentials", h.Account.UpdateCredentials)
			r.Delete("/{id}", h.Account.Delete)

			r.Post("/{id}/sync", h.Sync.SyncAccount)
			r.Get("/{id}/snapshot", h.Snapshot.Latest)
			r.Get("/{id}/costs/daily", h.Snapshot.DailyCosts)
		})

		r.Post("/api/v1/sync", h.Sync.SyncAll)

		r.Route("/api/v1/anomalies", func(r chi.Router) {
			r.Get("/", h.Anomaly.List)
			r.Get("/summary", h.Anomaly.Summary)
			r.Get("/{id}", h.Anomaly.Get)
			r.Put("/{id}/status", h.Anomaly.UpdateStatus)
		})
	})

	return r
}
