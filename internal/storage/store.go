package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// Store persists widgets, dashboards, drafts, versions and placements.
// All methods are safe for concurrent use within one process; writes are
// serialized by mu.
type Store struct {
	db     *sql.DB
	driver string
	mu     sync.RWMutex
}

// NewDuckDBStore opens (or creates) a DuckDB database at dbPath.
// Use ":memory:" for an in-memory database.
func NewDuckDBStore(dbPath string) (*Store, error) {
	return Open(DriverDuckDB, dbPath)
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open opens a store with the given driver and initializes the schema.
func Open(driver, dbPath string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver != DriverDuckDB && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if dbPath != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == DriverSQLite {
		// Every new SQLite connection to :memory: is a separate database,
		// and SQLite allows a single writer anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &Store{db: db, driver: driver}

	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) initSchema(ctx context.Context) error {
	schemas := []string{
		schemaWidgets,
		schemaWidgetConfigurations,
		schemaDashboards,
		schemaDashboardDrafts,
		schemaDraftPlacements,
		schemaDashboardVersions,
		schemaPublishedPlacements,
		schemaWidgetInteractions,
		indexWidgets,
		indexDashboards,
		indexPlacements,
		indexInteractions,
	}

	for _, schema := range schemas {
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("executing schema: %w", err)
		}
	}

	return nil
}

// scanJSON decodes a JSON column. DuckDB hands back decoded values for JSON
// columns while SQLite returns text, so both shapes are accepted.
func scanJSON(v interface{}, dst interface{}) error {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return json.Unmarshal([]byte(val), dst)
	case []byte:
		if len(val) == 0 {
			return nil
		}
		return json.Unmarshal(val, dst)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
