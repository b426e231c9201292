// Package middleware provides reusable HTTP middleware for the trip planner API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// exposedHeaders are the response headers browser clients need to read:
// rate limit state, the CSV export filename and request ids for bug reports.
var exposedHeaders = []string{
	"Retry-After",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Content-Disposition",
	"X-Request-Id",
}

// NewCORSHandler returns a middleware that applies CORS headers for
// allowedOrigins. Each entry must be a full origin (scheme + host, no trailing
// slash). Tokens travel in the Authorization header or the access_token query
// parameter, never in cookies, so credentials stay disabled.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		// Last-Event-ID is sent by EventSource on reconnect.
		AllowedHeaders: []string{"Content-Type", "Authorization", "Last-Event-ID"},
		ExposedHeaders: exposedHeaders,
		MaxAge:         600,
	})
	return c.Handler
}
