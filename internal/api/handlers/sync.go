package handlers

import (
	"net/http"

	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/utils"
	"github.com/costpulse/costpulse/internal/services"
)

type SyncHandler struct {
	service *services.SyncService
	logger  *logger.Logger
}

func NewSyncHandler(service *services.SyncService, log *logger.Logger) *SyncHandler {
	return &SyncHandler{service: service, logger: log}
}

// SyncAll triggers a sync of every account and reports per-account outcomes.
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SyncAll(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// SyncAccount triggers a sync of one account. Failures are reported in the
// result body, not as an HTTP error; the request itself succeeded.
func (h *SyncHandler) SyncAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	result := h.service.SyncAccount(r.Context(), id)
	utils.WriteJSON(w, http.StatusOK, result)
}
