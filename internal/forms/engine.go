// Package forms orchestrates 1003 form extraction requests: it gates input
// through the transcript validator, dispatches to the selected extraction
// strategy, normalizes the output, and records the run in the history store.
// Every surface (CLI, web form, MCP) goes through the same engine.
package forms

import (
	"context"
	"fmt"
	"os"

	"github.com/formsiq/formsiq/internal/extract"
	"github.com/formsiq/formsiq/internal/ingest"
	"github.com/formsiq/formsiq/internal/llm"
	"github.com/formsiq/formsiq/internal/store"
)

// DelegatedExtractor is the LLM-backed strategy. *llm.Client implements it.
type DelegatedExtractor interface {
	Extract(ctx context.Context, transcript string) (extract.Result, error)
}

// ValidationError reports a transcript the pre-check gate rejected.
// Rejected transcripts never reach an extractor.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// RunResult is one successful extraction, normalized.
type RunResult struct {
	RunID     string          `json:"run_id,omitempty"`
	Extractor string          `json:"extractor"`
	Fields    []extract.Field `json:"fields"`
}

// BatchItem is the per-row outcome of a batch request. Exactly one of
// Fields or Error is set.
type BatchItem struct {
	Row    int               `json:"row"`
	RunID  string            `json:"run_id,omitempty"`
	Fields []extract.Field   `json:"fields,omitempty"`
	Error  *llm.ErrorPayload `json:"error,omitempty"`
}

// Engine composes the two extraction strategies with the history store.
type Engine struct {
	rules     *extract.Extractor
	delegated DelegatedExtractor // nil when no LLM is configured
	history   store.Store        // nil disables recording
}

// NewEngine creates an extraction engine. delegated and history may be nil.
func NewEngine(delegated DelegatedExtractor, history store.Store) *Engine {
	return &Engine{
		rules:     extract.NewExtractor(),
		delegated: delegated,
		history:   history,
	}
}

// HasDelegated reports whether the LLM strategy is available.
func (e *Engine) HasDelegated() bool { return e.delegated != nil }

// ExtractOne validates and processes a single transcript with the named
// strategy ("rules" or "llm"). Failures come back as *ValidationError for
// rejected input or *llm.ServiceError for delegated-extractor faults.
func (e *Engine) ExtractOne(ctx context.Context, transcript, extractor string) (*RunResult, error) {
	if ok, reason := extract.ValidateTranscript(transcript); !ok {
		return nil, &ValidationError{Reason: reason}
	}

	var result extract.Result
	switch extractor {
	case store.ExtractorRules, "":
		extractor = store.ExtractorRules
		result = extract.NormalizeResult(e.rules.Extract(transcript))
	case store.ExtractorLLM:
		if e.delegated == nil {
			return nil, fmt.Errorf("no LLM configured: set --llm or FORMSIQ_LLM")
		}
		var err error
		result, err = e.delegated.Extract(ctx, transcript)
		if err != nil {
			e.recordError(ctx, transcript, err)
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown extractor %q (supported: rules, llm)", extractor)
	}

	run := &store.Run{
		Extractor:  extractor,
		Status:     store.StatusOK,
		Transcript: transcript,
		Fields:     result.Fields,
	}
	e.record(ctx, run)

	return &RunResult{RunID: run.ID, Extractor: extractor, Fields: result.Fields}, nil
}

// ExtractBatch processes rows strictly sequentially. A failing item is
// reported in place and never aborts the rest of the batch.
func (e *Engine) ExtractBatch(ctx context.Context, rows []ingest.TranscriptRow, extractor string) []BatchItem {
	items := make([]BatchItem, 0, len(rows))
	for _, row := range rows {
		res, err := e.ExtractOne(ctx, row.Transcript, extractor)
		if err != nil {
			payload := errorPayload(err)
			items = append(items, BatchItem{Row: row.Row, Error: &payload})
			continue
		}
		items = append(items, BatchItem{Row: row.Row, RunID: res.RunID, Fields: res.Fields})
	}
	return items
}

// errorPayload maps any engine failure to the JSON error shape.
// Validation failures use HTTP-style 400; the rest follow the upstream
// taxonomy (401/429/502/0).
func errorPayload(err error) llm.ErrorPayload {
	if ve, ok := err.(*ValidationError); ok {
		return llm.ErrorPayload{ErrorCode: 400, ErrorMessage: ve.Reason}
	}
	return llm.Payload(err)
}

// ErrorPayload exposes the engine's error mapping to presentation layers.
func ErrorPayload(err error) llm.ErrorPayload { return errorPayload(err) }

// record persists a successful run. History failures are reported on
// stderr but never fail the extraction that produced the result.
func (e *Engine) record(ctx context.Context, run *store.Run) {
	if e.history == nil {
		return
	}
	if err := e.history.SaveRun(ctx, run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording run failed: %v\n", err)
	}
}

// recordError persists a failed delegated run for the history view.
func (e *Engine) recordError(ctx context.Context, transcript string, cause error) {
	if e.history == nil {
		return
	}
	payload := llm.Payload(cause)
	run := &store.Run{
		Extractor:    store.ExtractorLLM,
		Status:       store.StatusError,
		Transcript:   transcript,
		ErrorCode:    payload.ErrorCode,
		ErrorMessage: payload.ErrorMessage,
	}
	if err := e.history.SaveRun(ctx, run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording failed run: %v\n", err)
	}
}
