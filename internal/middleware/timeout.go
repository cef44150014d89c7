package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single editor or viewer request. Slow
// configuration fetches inside a render are cut shorter by the pipeline's
// own load timeout.
const DefaultRequestTimeout = 5 * time.Second

// ContextTimeoutMiddleware adds a timeout to the request context.
// Handlers should check ctx.Done() and ctx.Err() to handle timeouts gracefully.
// This is safer than wrapping ResponseWriter which breaks WebSocket hijacking.
func ContextTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Viewer websocket connections are long-lived
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultContextTimeoutMiddleware applies DefaultRequestTimeout.
func DefaultContextTimeoutMiddleware(next http.Handler) http.Handler {
	return ContextTimeoutMiddleware(DefaultRequestTimeout)(next)
}
