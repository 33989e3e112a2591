package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/formsiq/formsiq/internal/config"
	"github.com/formsiq/formsiq/internal/forms"
	"github.com/formsiq/formsiq/internal/ingest"
	"github.com/formsiq/formsiq/internal/llm"
	"github.com/formsiq/formsiq/internal/store"
)

// commonOpts are the flags shared by every extraction-capable command.
type commonOpts struct {
	configPath string
	dbPath     string
	llmSpec    string
	noHistory  bool
}

// parseCommon consumes shared flags from args and returns the rest.
func parseCommon(args []string, opts *commonOpts) ([]string, error) {
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			i++
			opts.configPath = args[i]
		case args[i] == "--db" && i+1 < len(args):
			i++
			opts.dbPath = args[i]
		case args[i] == "--llm" && i+1 < len(args):
			i++
			opts.llmSpec = args[i]
		case args[i] == "--no-history":
			opts.noHistory = true
		default:
			rest = append(rest, args[i])
		}
	}
	return rest, nil
}

// buildEngine resolves configuration and wires the extraction engine.
// The returned store is nil when history is disabled; callers close it.
func buildEngine(opts commonOpts, port string) (*forms.Engine, store.Store, config.ResolvedConfig, error) {
	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: opts.configPath,
		CLILLM:     opts.llmSpec,
		CLIDBPath:  opts.dbPath,
		CLIPort:    port,
	})
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("resolving config: %w", err)
	}

	var delegated forms.DelegatedExtractor
	if llmCfg, err := llm.ResolveLLMConfig(cfg.LLM.Value); err != nil {
		return nil, nil, cfg, fmt.Errorf("resolving LLM config: %w", err)
	} else if llmCfg != nil {
		if err := llmCfg.Validate(); err != nil {
			return nil, nil, cfg, err
		}
		delegated = llm.NewClient(llmCfg)
	}

	var st store.Store
	if !opts.noHistory {
		st, err = store.NewStore(store.StoreConfig{DBPath: cfg.ExpandedDBPath()})
		if err != nil {
			return nil, nil, cfg, fmt.Errorf("opening history store: %w", err)
		}
	}

	return forms.NewEngine(delegated, st), st, cfg, nil
}

func runExtract(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}

	extractor := ""
	file := ""
	jsonOut := false
	var words []string
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--extractor" && i+1 < len(rest):
			i++
			extractor = rest[i]
		case rest[i] == "--file" && i+1 < len(rest):
			i++
			file = rest[i]
		case rest[i] == "--json":
			jsonOut = true
		case strings.HasPrefix(rest[i], "-"):
			return fmt.Errorf("unknown flag: %s", rest[i])
		default:
			words = append(words, rest[i])
		}
	}

	transcript := strings.Join(words, " ")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading transcript file: %w", err)
		}
		transcript = string(data)
	}
	if transcript == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		transcript = string(data)
	}

	engine, st, _, err := buildEngine(opts, "")
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	res, err := engine.ExtractOne(context.Background(), transcript, extractor)
	if err != nil {
		payload := forms.ErrorPayload(err)
		if jsonOut {
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		return fmt.Errorf("extraction failed (code %d): %s", payload.ErrorCode, payload.ErrorMessage)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	printFields(res)
	return nil
}

func printFields(res *forms.RunResult) {
	fmt.Printf("%-18s %-40s %s\n", "FIELD", "VALUE", "CONF")
	for _, f := range res.Fields {
		value := "(not found)"
		if f.FieldValue != nil {
			value = *f.FieldValue
		}
		fmt.Printf("%-18s %-40s %.2f\n", f.FieldName, value, f.ConfidenceScore)
	}
	if res.RunID != "" {
		fmt.Printf("\nRecorded run %s (%s extractor)\n", res.RunID, res.Extractor)
	}
}

func runBatch(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}

	extractor := ""
	jsonOut := false
	var paths []string
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--extractor" && i+1 < len(rest):
			i++
			extractor = rest[i]
		case rest[i] == "--json":
			jsonOut = true
		case strings.HasPrefix(rest[i], "-"):
			return fmt.Errorf("unknown flag: %s", rest[i])
		default:
			paths = append(paths, rest[i])
		}
	}
	if len(paths) != 1 {
		return fmt.Errorf("usage: formsiq batch <file.csv> [--extractor rules|llm]")
	}

	rows, err := ingest.ReadTranscriptsFile(paths[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no transcripts found in %s", paths[0])
	}

	engine, st, _, err := buildEngine(opts, "")
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	items := engine.ExtractBatch(context.Background(), rows, extractor)

	if jsonOut {
		data, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	succeeded := 0
	for _, item := range items {
		if item.Error != nil {
			fmt.Printf("Row %d: error %d: %s\n", item.Row, item.Error.ErrorCode, item.Error.ErrorMessage)
			continue
		}
		succeeded++
		found := 0
		for _, f := range item.Fields {
			if f.FieldValue != nil {
				found++
			}
		}
		fmt.Printf("Row %d: %d/%d fields", item.Row, found, len(item.Fields))
		if item.RunID != "" {
			fmt.Printf(" (run %s)", item.RunID)
		}
		fmt.Println()
	}
	fmt.Printf("\n%d of %d transcripts extracted\n", succeeded, len(items))
	return nil
}
