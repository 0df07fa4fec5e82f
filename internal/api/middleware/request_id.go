package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDKey is the context key holding the request ID
	RequestIDKey ContextKey = "requestID"
	// RequestIDHeader carries the ID on requests and responses
	RequestIDHeader = "X-Request-ID"
)

// RequestID tags every request with an ID for log correlation. A caller
// supplied ID is kept so the CLI and dashboard can trace their own calls.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 64 {
				id = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) string {
	if id, ok := r.Context().Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
