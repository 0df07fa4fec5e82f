package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/costpulse/costpulse/internal/api/dto"
	"github.com/costpulse/costpulse/internal/api/middleware"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/utils"
	"github.com/costpulse/costpulse/internal/pkg/validator"
	"github.com/costpulse/costpulse/internal/providers"
	"github.com/costpulse/costpulse/internal/services"
)

type AccountHandler struct {
	service   *services.AccountService
	logger    *logger.Logger
	validator *validator.Validator
}

func NewAccountHandler(service *services.AccountService, log *logger.Logger, val *validator.Validator) *AccountHandler {
	return &AccountHandler{service: service, logger: log, validator: val}
}

// Create registers a new billing account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("validation failed", verrs))
		return
	}

	userID, _ := middleware.GetUserID(r)
	acct, err := h.service.Register(r.Context(), userID, req.ProviderID, req.Name, providers.Credentials(req.Credentials))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, dto.NewAccountDTO(acct))
}

// List returns the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r)
	accounts, err := h.service.List(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	dtos := make([]dto.AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = dto.NewAccountDTO(a)
	}
	utils.WriteJSON(w, http.StatusOK, dtos)
}

// Get returns one account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	acct, err := h.service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dto.NewAccountDTO(acct))
}

// UpdateCredentials reseals an account's provider credentials.
func (h *AccountHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := h.service.UpdateCredentials(r.Context(), id, providers.Credentials(req.Credentials)); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes an account and all derived data.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		utils.WriteError(w, errors.BadRequest("invalid account id"))
		return 0, false
	}
	return id, true
}
