// Package ingest reads transcript batches from tabular uploads.
//
// A batch is a CSV (or TSV) document with a header row containing a
// "transcript" column. Rows with an absent or empty transcript value are
// skipped before they ever reach an extractor.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingColumn is returned when the upload has no transcript column.
var ErrMissingColumn = fmt.Errorf("CSV must contain a %q column", TranscriptColumn)

// TranscriptColumn is the required header name, matched case-insensitively.
const TranscriptColumn = "transcript"

// TranscriptRow is one usable row from a batch upload.
type TranscriptRow struct {
	Row        int    // 1-indexed data row number (header excluded)
	Transcript string // trimmed, non-empty
}

// ReadTranscripts parses a CSV document and returns its non-empty
// transcripts in row order.
func ReadTranscripts(r io.Reader) ([]TranscriptRow, error) {
	return readTranscripts(r, ',')
}

// ReadTranscriptsFile reads a batch from disk. TSV files are detected by
// extension.
func ReadTranscriptsFile(path string) ([]TranscriptRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	comma := ','
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		comma = '\t'
	}

	rows, err := readTranscripts(f, comma)
	if err != nil {
		return nil, fmt.Errorf("reading batch %s: %w", path, err)
	}
	return rows, nil
}

func readTranscripts(r io.Reader, comma rune) ([]TranscriptRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // tolerate ragged rows; missing cells read as empty

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrMissingColumn
	}

	col := -1
	for i, header := range records[0] {
		if strings.EqualFold(strings.TrimSpace(header), TranscriptColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingColumn
	}

	var rows []TranscriptRow
	for i, record := range records[1:] {
		if col >= len(record) {
			continue
		}
		transcript := strings.TrimSpace(record[col])
		if transcript == "" {
			continue
		}
		rows = append(rows, TranscriptRow{Row: i + 1, Transcript: transcript})
	}

	return rows, nil
}
