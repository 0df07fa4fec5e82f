package handlers

import (
	"net/http"
	"strconv"

	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/utils"
	"github.com/costpulse/costpulse/internal/services"
)

type SnapshotHandler struct {
	service *services.SnapshotService
	logger  *logger.Logger
}

func NewSnapshotHandler(service *services.SnapshotService, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{service: service, logger: log}
}

// Latest returns the most recent cost snapshot for an account.
func (h *SnapshotHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.Latest(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, snap)
}

// DailyCosts returns per-day totals for the trailing window.
func (h *SnapshotHandler) DailyCosts(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	costs, err := h.service.DailyCosts(r.Context(), id, days)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, costs)
}
