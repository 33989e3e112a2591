// Package store provides the SQLite storage layer for FormsIQ.
//
// Extraction history lives in a single SQLite database file:
// - One row per extraction run (transcript, strategy, outcome)
// - The normalized field list each successful run produced
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.formsiq/formsiq.db"

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Extractor strategy names recorded with each run.
const (
	ExtractorRules = "rules"
	ExtractorLLM   = "llm"
)

// Run represents one recorded extraction call.
type Run struct {
	ID           string // UUID
	Extractor    string // "rules" or "llm"
	Status       string // "ok" or "error"
	Transcript   string
	ErrorCode    int    // 0 unless Status is "error"
	ErrorMessage string // empty unless Status is "error"
	CreatedAt    time.Time
	Fields       []extract.Field // normalized field list for "ok" runs
}

// ListOpts controls pagination for ListRuns.
type ListOpts struct {
	Limit  int
	Offset int
}

// Stats holds observability counters for the store.
type Stats struct {
	RunCount    int64
	FieldCount  int64
	ErrorCount  int64
	DBSizeBytes int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the extraction-history interface.
type Store interface {
	SaveRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: cfg.DBPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
