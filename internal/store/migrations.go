package store

import "fmt"

// migrate creates all tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			extractor     TEXT NOT NULL,
			status        TEXT NOT NULL,
			transcript    TEXT NOT NULL,
			error_code    INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_fields (
			run_id           TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position         INTEGER NOT NULL,
			field_name       TEXT NOT NULL,
			field_value      TEXT,
			confidence_score REAL NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_run_fields_run ON run_fields(run_id)`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
