package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS returns a CORS middleware allowing the given origins. The API is
// token-authenticated, so credentials are allowed for the dashboard origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// DefaultCORS builds the middleware for the configured dashboard URL,
// widening to the usual dev-server ports when it points at localhost.
func DefaultCORS(frontendURL string) func(http.Handler) http.Handler {
	origins := []string{frontendURL}
	if strings.Contains(frontendURL, "localhost") || strings.Contains(frontendURL, "127.0.0.1") {
		origins = append(origins,
			"http://localhost:3000",
			"http://localhost:5173",
		)
	}
	return CORS(origins)
}
