package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/config"
)

// getTestConfig returns a config with a test-appropriate port
func getTestConfig(t *testing.T, driver string) *config.Config {
	t.Helper()

	// Create a temp directory for the test database
	dbPath := filepath.Join(t.TempDir(), "test."+driver)

	return &config.Config{
		APIPort:           18080, // Use a non-standard port for testing
		DatabaseDriver:    driver,
		DatabasePath:      dbPath,
		FrontendURL:       "http://localhost:5173",
		ConfigCacheTTL:    time.Minute,
		RenderLoadTimeout: time.Second,
		SessionTTL:        time.Minute,
		BreakpointSet:     "standard",
		RepairSchedule:    "@every 1m",
		TrackingBuffer:    16,
	}
}

func newTestServer(t *testing.T, driver string) *Server {
	t.Helper()
	server, err := New(getTestConfig(t, driver))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})
	return server
}

func TestNewServer(t *testing.T) {
	for _, driver := range []string{"duckdb", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			server := newTestServer(t, driver)

			if server.storage == nil {
				t.Error("Server storage is nil")
			}
			if server.wsHub == nil {
				t.Error("Server wsHub is nil")
			}
			if server.bus == nil {
				t.Error("Server bus is nil")
			}
			if len(server.scheduler.Jobs()) != 3 {
				t.Errorf("scheduled jobs = %v", server.scheduler.Jobs())
			}
			// Check that database file was created
			if _, err := os.Stat(server.config.DatabasePath); os.IsNotExist(err) {
				t.Error("Database file was not created")
			}
		})
	}
}

func TestNewServer_InvalidConfig(t *testing.T) {
	cfg := getTestConfig(t, "postgres")
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unsupported driver")
	}

	cfg = getTestConfig(t, "duckdb")
	cfg.RepairSchedule = "whenever"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid repair schedule")
	}
}

func TestRoutes_EditorToViewer(t *testing.T) {
	server := newTestServer(t, "duckdb")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	call := func(method, path string, body interface{}, wantStatus int, dst interface{}) {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		req, _ := http.NewRequest(method, ts.URL+path, &buf)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != wantStatus {
			t.Fatalf("%s %s status = %d, want %d", method, path, resp.StatusCode, wantStatus)
		}
		if dst != nil {
			if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
				t.Fatalf("decoding %s %s: %v", method, path, err)
			}
		}
	}

	var w api.Widget
	call(http.MethodPost, "/api/widgets", map[string]string{"name": "Docs", "widgetType": "redirect"}, http.StatusCreated, &w)
	call(http.MethodPut, "/api/widgets/"+w.ID+"/configuration",
		map[string]interface{}{"config": map[string]string{"redirectUrl": "https://docs.example.com"}}, http.StatusOK, nil)

	var d api.Dashboard
	call(http.MethodPost, "/api/dashboards", map[string]string{"name": "Ops"}, http.StatusCreated, &d)
	var draft api.Draft
	call(http.MethodPost, "/api/dashboards/"+d.ID+"/drafts", nil, http.StatusOK, &draft)
	call(http.MethodPut, "/api/drafts/"+draft.ID+"/placements", map[string]interface{}{
		"placements": []map[string]interface{}{{"widgetId": w.ID, "width": 3, "height": 2}},
	}, http.StatusOK, nil)

	var v api.Version
	call(http.MethodPost, "/api/drafts/"+draft.ID+"/publish", map[string]string{"author": "ana"}, http.StatusCreated, &v)
	if v.VersionNumber != 1 {
		t.Errorf("version number = %d, want 1", v.VersionNumber)
	}

	var rendered struct {
		Nodes []struct {
			State  string `json:"state"`
			Output struct {
				Component string         `json:"component"`
				Props     map[string]any `json:"props"`
			} `json:"output"`
		} `json:"nodes"`
	}
	call(http.MethodGet, "/api/dashboards/"+d.ID+"/render?breakpoint=sm", nil, http.StatusOK, &rendered)
	if len(rendered.Nodes) != 1 || rendered.Nodes[0].State != "ready" || rendered.Nodes[0].Output.Component != "redirect" {
		t.Errorf("rendered = %+v", rendered)
	}

	call(http.MethodGet, "/api/widgets/types", nil, http.StatusOK, nil)
	call(http.MethodGet, "/api/dashboards/missing/versions/active", nil, http.StatusNotFound, nil)
	call(http.MethodPost, "/api/interactions", map[string]string{"widgetId": w.ID, "action": "click"}, http.StatusAccepted, nil)
}

func TestRoutes_GzipAndPayloadLimit(t *testing.T) {
	server := newTestServer(t, "duckdb")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte(`{"name":"Compressed"}`))
	gw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/dashboards", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("gzip request status = %d, want 201", resp.StatusCode)
	}

	big := `{"name":"` + strings.Repeat("x", int(maxRequestBytes)) + `"}`
	resp, err = http.Post(ts.URL+"/api/dashboards", "application/json", strings.NewReader(big))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized request status = %d, want 413", resp.StatusCode)
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/widgets", 200, slog.LevelInfo},
		{"/health", 200, slog.LevelDebug},
		{"/api/widgets", 404, slog.LevelWarn},
		{"/health", 503, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	server, err := New(getTestConfig(t, "duckdb"))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	// Check for startup errors
	select {
	case err := <-serverErr:
		if err != nil {
			t.Fatalf("Server failed to start: %v", err)
		}
	default:
		// No error, server is running
	}

	resp, err := http.Get("http://localhost:18080/health")
	if err != nil {
		t.Errorf("Failed to reach health endpoint: %v", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
	}

	// Test graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestServerShutdownBeforeStart(t *testing.T) {
	server, err := New(getTestConfig(t, "duckdb"))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	// Shutdown without starting - should not panic
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown before start returned error: %v", err)
	}
}
