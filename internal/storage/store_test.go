package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store, err := NewDuckDBStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return store, func() { store.Close() }
}

func setupSQLiteStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	return store, func() { store.Close() }
}

func TestNewDuckDBStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.duckdb")

	store, err := NewDuckDBStore(dbPath)
	if err != nil {
		t.Fatalf("NewDuckDBStore() error = %v", err)
	}
	defer store.Close()

	if store.DB() == nil {
		t.Error("DB() returns nil")
	}
	if store.Driver() != DriverDuckDB {
		t.Errorf("Driver() = %q, want %q", store.Driver(), DriverDuckDB)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	nestedPath := filepath.Join(tmpDir, "nested", "dir", "test.db")

	store, err := Open(DriverSQLite, nestedPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	dir := filepath.Dir(nestedPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("directory %s was not created", dir)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("postgres", ":memory:"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestInitSchema_Tables(t *testing.T) {
	for name, setup := range map[string]func(*testing.T) (*Store, func()){
		"duckdb": setupTestStore,
		"sqlite": setupSQLiteStore,
	} {
		t.Run(name, func(t *testing.T) {
			store, cleanup := setup(t)
			defer cleanup()

			tables := []string{
				"widgets", "widget_configurations", "dashboards", "dashboard_drafts",
				"draft_placements", "dashboard_versions", "published_placements", "widget_interactions",
			}
			for _, table := range tables {
				var n int
				if err := store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
					t.Errorf("table %s not queryable: %v", table, err)
				}
			}

			// Re-running the schema is a no-op
			if err := store.initSchema(context.Background()); err != nil {
				t.Errorf("initSchema() second run error = %v", err)
			}
		})
	}
}

// The SQLite driver must run the full publish flow the same way DuckDB does.
func TestSQLiteStore_PublishFlow(t *testing.T) {
	store, cleanup := setupSQLiteStore(t)
	defer cleanup()

	ctx := context.Background()
	d, draft := createDashboardWithDraft(t, store, "SQLite Ops")
	w := createTestWidget(t, store, "chart", widget.TypeDataVisualization)

	if _, err := store.ReplaceDraftPlacements(ctx, draft.ID, []api.PlacementInput{
		{WidgetID: w.ID, PositionX: 0, PositionY: 0, Width: 3, Height: 2},
	}); err != nil {
		t.Fatalf("ReplaceDraftPlacements() error = %v", err)
	}

	v, err := store.PublishDraft(ctx, &api.PublishRequest{DraftID: draft.ID, Author: "alice"})
	if err != nil {
		t.Fatalf("PublishDraft() error = %v", err)
	}
	if v.VersionNumber != 1 {
		t.Errorf("VersionNumber = %d, want 1", v.VersionNumber)
	}

	placements, err := store.GetVersionPlacements(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVersionPlacements() error = %v", err)
	}
	if len(placements) != 1 || placements[0].Width != 3 {
		t.Errorf("placements = %+v", placements)
	}

	got, err := store.GetDashboard(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if !got.IsPublished {
		t.Error("expected dashboard to be marked published")
	}
}

func TestScanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "text", in: `["admin","viewer"]`, want: []string{"admin", "viewer"}},
		{name: "bytes", in: []byte(`["admin"]`), want: []string{"admin"}},
		{name: "decoded", in: []interface{}{"viewer"}, want: []string{"viewer"}},
		{name: "empty text", in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			if err := scanJSON(tt.in, &got); err != nil {
				t.Fatalf("scanJSON() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
