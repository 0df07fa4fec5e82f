package utils

import (
	"encoding/json"
	"net/http"

	"github.com/costpulse/costpulse/internal/pkg/errors"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response. AppErrors keep their code and status;
// anything else is masked as an internal error.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Internal("internal server error", err)
	}
	WriteJSON(w, appErr.StatusCode, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
