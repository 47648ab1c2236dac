package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var (
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsHeaders = []string{
		"Accept", "Authorization", "Content-Type",
		idempotencyHeader, requestIDHeader, "X-Requested-With",
	}
)

// CORS allows the configured origins with credentials, since the session
// rides in cookies. Preflight results are cached for five minutes.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   corsHeaders,
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
