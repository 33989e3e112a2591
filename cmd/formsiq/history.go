package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/formsiq/formsiq/internal/config"
	"github.com/formsiq/formsiq/internal/store"
)

func runHistory(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}

	limit := 0
	jsonOut := false
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--limit" && i+1 < len(rest):
			i++
			limit, err = strconv.Atoi(rest[i])
			if err != nil || limit <= 0 {
				return fmt.Errorf("invalid --limit: %s", rest[i])
			}
		case rest[i] == "--json":
			jsonOut = true
		default:
			return fmt.Errorf("unknown argument: %s", rest[i])
		}
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: opts.configPath,
		CLIDBPath:  opts.dbPath,
	})
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}

	st, err := store.NewStore(store.StoreConfig{DBPath: cfg.ExpandedDBPath()})
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	runs, err := st.ListRuns(ctx, store.ListOpts{Limit: limit})
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if jsonOut {
		data, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No extraction runs recorded yet.")
		return nil
	}

	fmt.Printf("%-36s %-20s %-6s %-7s %s\n", "RUN", "WHEN", "BY", "STATUS", "OUTCOME")
	for _, run := range runs {
		outcome := fmt.Sprintf("%d fields", len(run.Fields))
		if run.Status == store.StatusError {
			outcome = fmt.Sprintf("error %d: %s", run.ErrorCode, run.ErrorMessage)
		}
		fmt.Printf("%-36s %-20s %-6s %-7s %s\n",
			run.ID,
			run.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			run.Extractor,
			run.Status,
			outcome,
		)
	}

	stats, err := st.Stats(ctx)
	if err == nil {
		fmt.Printf("\n%d runs, %d fields, %d errors, %s\n",
			stats.RunCount, stats.FieldCount, stats.ErrorCount, formatBytes(stats.DBSizeBytes))
	}
	return nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func runConfig(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unknown argument: %s", rest[0])
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: opts.configPath,
		CLILLM:     opts.llmSpec,
		CLIDBPath:  opts.dbPath,
	})
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}

	fmt.Printf("Config file: %s", cfg.ConfigPath)
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		fmt.Print(" (not present)")
	}
	fmt.Println()
	fmt.Println()

	printResolved("db_path", cfg.DBPath)
	printResolved("llm", cfg.LLM)
	printResolved("port", cfg.Port)
	return nil
}

func printResolved(name string, v config.ResolvedValue) {
	value := v.Value
	if value == "" {
		value = "(unset)"
	}
	from := string(v.Source)
	if v.From != "" {
		from = fmt.Sprintf("%s %s", v.Source, v.From)
	}
	fmt.Printf("  %-8s %-36s %s\n", name, value, from)
}
