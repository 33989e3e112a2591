package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
	"github.com/google/uuid"
)

// SaveRun persists one extraction run and its field list atomically.
// A missing ID or CreatedAt is filled in before writing.
func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, extractor, status, transcript, error_code, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Extractor, r.Status, r.Transcript, r.ErrorCode, r.ErrorMessage, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, f := range r.Fields {
		var value sql.NullString
		if f.FieldValue != nil {
			value = sql.NullString{String: *f.FieldValue, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_fields (run_id, position, field_name, field_value, confidence_score)
			 VALUES (?, ?, ?, ?, ?)`,
			r.ID, i, f.FieldName, value, f.ConfidenceScore)
		if err != nil {
			return fmt.Errorf("inserting run field %q: %w", f.FieldName, err)
		}
	}

	return tx.Commit()
}

// GetRun loads one run with its fields. Returns sql.ErrNoRows wrapped when
// the ID is unknown.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, extractor, status, transcript, error_code, error_message, created_at
		 FROM runs WHERE id = ?`, id)

	r := &Run{}
	err := row.Scan(&r.ID, &r.Extractor, &r.Status, &r.Transcript, &r.ErrorCode, &r.ErrorMessage, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	if err := s.loadFields(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns runs newest first, fields included.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, extractor, status, transcript, error_code, error_message, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Extractor, &r.Status, &r.Transcript, &r.ErrorCode, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range runs {
		if err := s.loadFields(ctx, r); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) loadFields(ctx context.Context, r *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_name, field_value, confidence_score
		 FROM run_fields WHERE run_id = ? ORDER BY position`, r.ID)
	if err != nil {
		return fmt.Errorf("loading fields for run %s: %w", r.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f extract.Field
		var value sql.NullString
		if err := rows.Scan(&f.FieldName, &value, &f.ConfidenceScore); err != nil {
			return fmt.Errorf("scanning field: %w", err)
		}
		if value.Valid {
			v := value.String
			f.FieldValue = &v
		}
		r.Fields = append(r.Fields, f)
	}
	return rows.Err()
}

// Stats returns observability counters for the store.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&st.RunCount); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_fields").Scan(&st.FieldCount); err != nil {
		return nil, fmt.Errorf("counting fields: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE status = ?", StatusError).Scan(&st.ErrorCount); err != nil {
		return nil, fmt.Errorf("counting errors: %w", err)
	}

	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}

	return st, nil
}
