package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/costpulse/costpulse/internal/auth"
	"github.com/costpulse/costpulse/internal/pkg/errors"
	"github.com/costpulse/costpulse/internal/pkg/utils"
)

// ContextKey is the type for request context keys set by middleware.
type ContextKey string

const (
	// UserIDKey holds the authenticated caller's user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey holds the authenticated caller's email
	UserEmailKey ContextKey = "email"
)

// AuthMiddleware validates the Bearer token on every protected route and
// stashes the caller identity in the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

			AddLogField(w, "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return token
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(UserIDKey).(int64)
	return id, ok
}

// GetUserEmail extracts the authenticated email from the request context.
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}
