package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/utils"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewHealthHandler(db *sql.DB, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: log}
}

// Healthz handles the liveness probe.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles the readiness probe; readiness requires a reachable
// database.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "database ping failed")
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "database connection failed",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "connected",
	})
}
