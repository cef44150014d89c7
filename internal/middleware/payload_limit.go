package middleware

import (
	"net/http"

	"github.com/tobilg/widget-studio/internal/api"
)

// PayloadLimitMiddleware limits the size of incoming request bodies.
// Requests without a body (GET, HEAD, websocket upgrades) pass untouched.
func PayloadLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Check Content-Length header first (may be absent)
			if r.ContentLength > maxBytes {
				api.WriteErrorFromError(w, api.NewPayloadTooLargeError(maxBytes, r.ContentLength))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
