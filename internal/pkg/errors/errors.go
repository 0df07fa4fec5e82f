package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDatabase          = "DATABASE_ERROR"
	ErrCodeProviderAuth      = "PROVIDER_AUTH_ERROR"
	ErrCodeProviderTransient = "PROVIDER_TRANSIENT_ERROR"
	ErrCodeNormalization     = "NORMALIZATION_ERROR"
	ErrCodeSyncTimeout       = "SYNC_TIMEOUT"
	ErrCodeSyncInFlight      = "SYNC_IN_FLIGHT"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a persistence-layer error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// Sync taxonomy constructors. These are the only error kinds that cross the
// per-(account, provider) sync boundary; each lands in the account's
// SyncResult, never aborts sibling accounts.

// AuthenticationError marks bad or expired provider credentials. Fatal for
// that account, never retried.
func AuthenticationError(providerID string, err error) *AppError {
	return Wrap(err, ErrCodeProviderAuth,
		fmt.Sprintf("authentication with %s failed", providerID),
		http.StatusUnauthorized)
}

// TransientFetchError marks a retryable upstream failure (network, 5xx,
// rate limit). Surfaced only after retries are exhausted.
func TransientFetchError(providerID string, err error) *AppError {
	return Wrap(err, ErrCodeProviderTransient,
		fmt.Sprintf("transient %s API failure", providerID),
		http.StatusBadGateway)
}

// NormalizationError marks a raw payload the adapter could not make sense
// of; field names the offending element.
func NormalizationError(providerID, field string) *AppError {
	return New(ErrCodeNormalization,
		fmt.Sprintf("cannot normalize %s payload: bad field %q", providerID, field),
		http.StatusUnprocessableEntity)
}

// TimeoutError marks a sync that exceeded its deadline. No partial snapshot
// is persisted.
func TimeoutError(providerID string, err error) *AppError {
	return Wrap(err, ErrCodeSyncTimeout,
		fmt.Sprintf("sync deadline exceeded for %s", providerID),
		http.StatusGatewayTimeout)
}

// Code extracts the AppError code from an error chain, or INTERNAL_ERROR.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsAuth reports whether err is a provider authentication failure.
func IsAuth(err error) bool {
	return Code(err) == ErrCodeProviderAuth
}

// IsTransient reports whether err is a retryable upstream failure.
func IsTransient(err error) bool {
	return Code(err) == ErrCodeProviderTransient
}

// IsTimeout reports whether err is a sync deadline failure.
func IsTimeout(err error) bool {
	return Code(err) == ErrCodeSyncTimeout
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}
