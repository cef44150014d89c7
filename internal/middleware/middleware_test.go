package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPayloadLimitMiddleware(t *testing.T) {
	read := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := PayloadLimitMiddleware(16)(read)

	tests := []struct {
		name       string
		method     string
		body       string
		hideLength bool
		wantStatus int
	}{
		{"small body", http.MethodPut, `{"a":1}`, false, http.StatusOK},
		{"declared too large", http.MethodPut, strings.Repeat("x", 32), false, http.StatusRequestEntityTooLarge},
		{"streamed too large", http.MethodPost, strings.Repeat("x", 32), true, http.StatusRequestEntityTooLarge},
		{"get passes", http.MethodGet, "", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/drafts/d1/placements", strings.NewReader(tt.body))
			if tt.hideLength {
				req.ContentLength = -1
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestContextTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	handler := ContextTimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboards/d1/render", nil))
	if !hasDeadline {
		t.Fatal("expected request context to carry a deadline")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("deadline too far in the future: %v", deadline)
	}

	ws := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ws.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), ws)
	if hasDeadline {
		t.Error("websocket upgrade should not carry a deadline")
	}
}
