// Package server provides the demo web UI and JSON API for transcript
// extraction. It embeds a self-contained HTML/JS form that posts
// transcripts to the local API and renders the extracted 1003 fields.
package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
	"github.com/formsiq/formsiq/internal/forms"
	"github.com/formsiq/formsiq/internal/ingest"
	"github.com/formsiq/formsiq/internal/store"
)

//go:embed index.html
var pageFS embed.FS

// maxBatchUpload caps the accepted CSV upload size (8 MiB).
const maxBatchUpload = 8 << 20

// ServerConfig holds settings for the extraction web server.
type ServerConfig struct {
	Engine  *forms.Engine
	History store.Store // nil disables /api/history and /api/stats
	Port    string
}

// ExtractRequest is the body of POST /api/extract.
type ExtractRequest struct {
	Transcript string `json:"transcript"`
	Extractor  string `json:"extractor"`
}

// HistoryEntry is the list-friendly format for a recorded run.
type HistoryEntry struct {
	ID           string          `json:"id"`
	Extractor    string          `json:"extractor"`
	Status       string          `json:"status"`
	ErrorCode    int             `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    string          `json:"created_at"`
	FieldCount   int             `json:"field_count"`
	Fields       []extract.Field `json:"fields,omitempty"`
}

// Serve starts the extraction web server and blocks.
func Serve(cfg ServerConfig) error {
	mux := NewMux(cfg)
	addr := ":" + cfg.Port
	fmt.Printf("FormsIQ demo: http://localhost%s\n", addr)
	fmt.Printf("   Paste a call transcript or upload a CSV to extract 1003 fields.\n")
	return http.ListenAndServe(addr, mux)
}

// NewMux builds the HTTP routing table. Split from Serve for tests.
func NewMux(cfg ServerConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve the demo form
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data, err := pageFS.ReadFile("index.html")
		if err != nil {
			http.Error(w, "page not found", 500)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	})

	// Single-transcript extraction
	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		handleExtract(w, r, cfg.Engine)
	})

	// CSV batch extraction
	mux.HandleFunc("/api/batch", func(w http.ResponseWriter, r *http.Request) {
		handleBatch(w, r, cfg.Engine)
	})

	// Built-in sample transcripts for the form's dropdown
	mux.HandleFunc("/api/samples", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, extract.Samples())
	})

	// Recent runs from the history store
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		handleHistory(w, r, cfg.History)
	})

	// Stats endpoint for the banner
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		handleStats(w, r, cfg.History)
	})

	return mux
}

func handleExtract(w http.ResponseWriter, r *http.Request, engine *forms.Engine) {
	if r.Method != http.MethodPost {
		writeJSON(w, 405, map[string]string{"error": "POST required"})
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, map[string]string{"error": "invalid JSON body"})
		return
	}

	res, err := engine.ExtractOne(r.Context(), req.Transcript, req.Extractor)
	if err != nil {
		payload := forms.ErrorPayload(err)
		writeJSON(w, httpStatus(payload.ErrorCode), payload)
		return
	}
	writeJSON(w, 200, res)
}

func handleBatch(w http.ResponseWriter, r *http.Request, engine *forms.Engine) {
	if r.Method != http.MethodPost {
		writeJSON(w, 405, map[string]string{"error": "POST required"})
		return
	}

	if err := r.ParseMultipartForm(maxBatchUpload); err != nil {
		writeJSON(w, 400, map[string]string{"error": "expected multipart form with a \"file\" part"})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": "missing \"file\" part"})
		return
	}
	defer file.Close()

	rows, err := ingest.ReadTranscripts(file)
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	extractor := r.FormValue("extractor")
	items := engine.ExtractBatch(r.Context(), rows, extractor)
	writeJSON(w, 200, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

func handleHistory(w http.ResponseWriter, r *http.Request, history store.Store) {
	if history == nil {
		writeJSON(w, 503, map[string]string{"error": "history store not configured"})
		return
	}

	opts := store.ListOpts{}
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			opts.Limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v > 0 {
			opts.Offset = v
		}
	}
	withFields := r.URL.Query().Get("fields") == "true"

	runs, err := history.ListRuns(r.Context(), opts)
	if err != nil {
		writeJSON(w, 500, map[string]string{"error": err.Error()})
		return
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		e := HistoryEntry{
			ID:           run.ID,
			Extractor:    run.Extractor,
			Status:       run.Status,
			ErrorCode:    run.ErrorCode,
			ErrorMessage: run.ErrorMessage,
			CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
			FieldCount:   len(run.Fields),
		}
		if withFields {
			e.Fields = run.Fields
		}
		entries = append(entries, e)
	}
	writeJSON(w, 200, entries)
}

func handleStats(w http.ResponseWriter, r *http.Request, history store.Store) {
	if history == nil {
		writeJSON(w, 503, map[string]string{"error": "history store not configured"})
		return
	}
	stats, err := history.Stats(r.Context())
	if err != nil {
		writeJSON(w, 500, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, 200, map[string]interface{}{
		"run_count":     stats.RunCount,
		"field_count":   stats.FieldCount,
		"error_count":   stats.ErrorCount,
		"db_size_bytes": stats.DBSizeBytes,
	})
}

// httpStatus maps the taxonomy's error_code to the response status.
// Code 0 (unexpected) has no HTTP equivalent and becomes 502: the fault
// lives upstream of this server either way.
func httpStatus(code int) int {
	if code == 0 {
		return 502
	}
	return code
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
