// Package mcp provides a Model Context Protocol server for FormsIQ.
//
// It exposes transcript extraction (rule-based and LLM), transcript
// validation, and run history as MCP tools, plus store statistics as an
// MCP resource. Stdio transport only, for Claude Desktop and Cursor.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
	"github.com/formsiq/formsiq/internal/forms"
	"github.com/formsiq/formsiq/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Engine  *forms.Engine
	Store   store.Store // nil disables history and stats
	Version string      // version string for MCP server info
}

// dbMu serializes MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines.
// SQLite (even with WAL) supports only one writer at a time, and concurrent
// reads during writes can return stale results. A global mutex ensures
// correct ordering: an extraction's run is recorded before a history call
// can ask for it.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all FormsIQ tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"FormsIQ",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerExtractTool(s, cfg.Engine)
	registerValidateTool(s)
	registerHistoryTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)

	return s
}

// ServeStdio runs the server over stdin/stdout and blocks until the
// client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

func registerExtractTool(s *server.MCPServer, engine *forms.Engine) {
	tool := mcp.NewTool("formsiq_extract",
		mcp.WithDescription("Extract Form 1003 mortgage-application fields from a call transcript. Returns the normalized field list with per-field confidence scores; required fields missing from the transcript come back with a null value."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("The call transcript text to extract fields from"),
		),
		mcp.WithString("extractor",
			mcp.Description("Extraction strategy: rules (deterministic patterns) or llm (default: rules)"),
			mcp.Enum("rules", "llm"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		transcript, err := req.RequireString("transcript")
		if err != nil {
			return mcp.NewToolResultError("transcript is required"), nil
		}

		extractor := ""
		if e, err := req.RequireString("extractor"); err == nil && e != "" {
			extractor = e
		}

		res, err := engine.ExtractOne(ctx, transcript, extractor)
		if err != nil {
			payload := forms.ErrorPayload(err)
			data, _ := json.MarshalIndent(payload, "", "  ")
			return mcp.NewToolResultError(string(data)), nil
		}

		data, _ := json.MarshalIndent(res, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerValidateTool(s *server.MCPServer) {
	tool := mcp.NewTool("formsiq_validate",
		mcp.WithDescription("Check whether a transcript is worth extracting: long enough and containing at least one mortgage-related term. Returns ok plus a rejection reason when it fails."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("The call transcript text to check"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		transcript, err := req.RequireString("transcript")
		if err != nil {
			return mcp.NewToolResultError("transcript is required"), nil
		}

		ok, reason := extract.ValidateTranscript(transcript)
		result := map[string]interface{}{"ok": ok}
		if !ok {
			result["reason"] = reason
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerHistoryTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("formsiq_history",
		mcp.WithDescription("List recent extraction runs, newest first. Each run reports its extractor, status, and field count; pass include_fields to get the full field lists."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs (default: 20, max: 100)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of runs to skip, for pagination"),
		),
		mcp.WithBoolean("include_fields",
			mcp.Description("Include each run's extracted fields in the output (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if st == nil {
			return mcp.NewToolResultError("history store not configured"), nil
		}

		opts := store.ListOpts{}
		if limitVal, err := req.RequireFloat("limit"); err == nil {
			limit := int(limitVal)
			if limit > 100 {
				limit = 100
			}
			if limit > 0 {
				opts.Limit = limit
			}
		}
		if offsetVal, err := req.RequireFloat("offset"); err == nil && int(offsetVal) > 0 {
			opts.Offset = int(offsetVal)
		}

		includeFields := false
		if v, err := req.RequireBool("include_fields"); err == nil {
			includeFields = v
		} else if s, err := req.RequireString("include_fields"); err == nil && s == "true" {
			includeFields = true
		}

		runs, err := st.ListRuns(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
		}

		type runInfo struct {
			ID           string          `json:"id"`
			Extractor    string          `json:"extractor"`
			Status       string          `json:"status"`
			ErrorCode    int             `json:"error_code,omitempty"`
			ErrorMessage string          `json:"error_message,omitempty"`
			CreatedAt    string          `json:"created_at"`
			FieldCount   int             `json:"field_count"`
			Fields       []extract.Field `json:"fields,omitempty"`
		}

		infos := make([]runInfo, 0, len(runs))
		for _, run := range runs {
			info := runInfo{
				ID:           run.ID,
				Extractor:    run.Extractor,
				Status:       run.Status,
				ErrorCode:    run.ErrorCode,
				ErrorMessage: run.ErrorMessage,
				CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
				FieldCount:   len(run.Fields),
			}
			if includeFields {
				info.Fields = run.Fields
			}
			infos = append(infos, info)
		}

		data, _ := json.MarshalIndent(map[string]interface{}{
			"runs":  infos,
			"count": len(infos),
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerStatsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"formsiq://stats",
		"Extraction Stats",
		mcp.WithResourceDescription("Run, field, and error counts plus database size."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if st == nil {
			return nil, fmt.Errorf("history store not configured")
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats resource: %w", err)
		}

		data, _ := json.MarshalIndent(map[string]interface{}{
			"run_count":     stats.RunCount,
			"field_count":   stats.FieldCount,
			"error_count":   stats.ErrorCount,
			"db_size_bytes": stats.DBSizeBytes,
		}, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
