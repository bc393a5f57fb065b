package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173", // local dev frontend
	"http://localhost:3000",
}

// CORS returns middleware that applies the API's allowed origin policy. The
// configured frontend base URL is appended to the defaults.
func CORS(frontendBaseURL string) func(http.Handler) http.Handler {
	origins := defaultCORSOrigins
	if trimmed := strings.TrimRight(strings.TrimSpace(frontendBaseURL), "/"); trimmed != "" {
		origins = append(origins, trimmed)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
