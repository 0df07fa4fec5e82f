package handlers

import (
	"net/http"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/pkg/utils"
)

type ProviderHandler struct{}

func NewProviderHandler() *ProviderHandler {
	return &ProviderHandler{}
}

// List returns the supported provider identifiers.
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, account.ProviderIDs())
}
