// Package middleware provides reusable HTTP middleware for the travel API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that applies CORS headers based on allowedOrigins.
// Each entry in allowedOrigins must be a full origin (scheme + host, no trailing slash).
// Allowed methods and headers cover the full REST surface of the API; maxAge
// is how long, in seconds, browsers may cache a preflight result.
func NewCORSHandler(allowedOrigins []string, maxAge int) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         maxAge,
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
