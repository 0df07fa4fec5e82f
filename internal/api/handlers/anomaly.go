package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/costpulse/costpulse/internal/api/dto"
	"github.com/costpulse/costpulse/internal/domain/anomaly"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/utils"
	"github.com/costpulse/costpulse/internal/pkg/validator"
	"github.com/costpulse/costpulse/internal/services"
)

type AnomalyHandler struct {
	service   *services.AnomalyService
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAnomalyHandler(service *services.AnomalyService, log *logger.Logger, val *validator.Validator) *AnomalyHandler {
	return &AnomalyHandler{service: service, logger: log, validator: val}
}

// List returns anomaly events newest first with optional filters.
func (h *AnomalyHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePaginationParams(r)
	accountID, _ := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)

	filter := anomaly.Filter{
		AccountID: accountID,
		Status:    r.URL.Query().Get("status"),
		Severity:  r.URL.Query().Get("severity"),
		Type:      r.URL.Query().Get("type"),
	}

	events, total, err := h.service.List(r.Context(), filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.NewPaginatedResponse(events, params.Page, params.PageSize, total))
}

// Get returns one anomaly event.
func (h *AnomalyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ev)
}

// UpdateStatus applies an operator resolution action.
func (h *AnomalyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAnomalyStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("validation failed", verrs))
		return
	}

	ev, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ev)
}

// Summary returns open-event counts per severity for an account.
func (h *AnomalyHandler) Summary(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	counts, err := h.service.SeverityCounts(r.Context(), accountID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, counts)
}
