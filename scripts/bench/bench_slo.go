// bench_slo.go — SLO benchmark for the rule extractor and history store.
// Run: go run scripts/bench/bench_slo.go [--db path] [--iterations N]
//
// Generates a JSON report with p50/p95/p99 latencies for each operation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/formsiq/formsiq/internal/extract"
	"github.com/formsiq/formsiq/internal/forms"
	"github.com/formsiq/formsiq/internal/store"
)

type BenchResult struct {
	Operation  string  `json:"operation"`
	Iterations int     `json:"iterations"`
	P50Ms      float64 `json:"p50_ms"`
	P95Ms      float64 `json:"p95_ms"`
	P99Ms      float64 `json:"p99_ms"`
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	MeanMs     float64 `json:"mean_ms"`
	Pass       bool    `json:"pass"`
	SLOMs      float64 `json:"slo_ms"`
}

type BenchReport struct {
	GeneratedAt string        `json:"generated_at"`
	DBPath      string        `json:"db_path"`
	RunCount    int           `json:"run_count"`
	FieldCount  int           `json:"field_count"`
	Results     []BenchResult `json:"results"`
	AllPass     bool          `json:"all_pass"`
}

func main() {
	dbPath := flag.String("db", ":memory:", "History database path (default: in-memory scratch DB)")
	iterations := flag.Int("iterations", 100, "Number of iterations per benchmark")
	outFile := flag.String("out", "", "Output JSON file (default: stdout)")
	flag.Parse()

	if strings.HasPrefix(*dbPath, "~/") {
		home, _ := os.UserHomeDir()
		*dbPath = filepath.Join(home, (*dbPath)[2:])
	}

	s, err := store.NewStore(store.StoreConfig{DBPath: *dbPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	ctx := context.Background()
	engine := forms.NewEngine(nil, s)

	transcripts := make([]string, 0, len(extract.Samples()))
	for _, sample := range extract.Samples() {
		if ok, _ := extract.ValidateTranscript(sample.Transcript); ok {
			transcripts = append(transcripts, sample.Transcript)
		}
	}

	report := BenchReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DBPath:      *dbPath,
		AllPass:     true,
	}

	fmt.Fprintf(os.Stderr, "FormsIQ SLO Benchmark\n")
	fmt.Fprintf(os.Stderr, "  DB: %s\n", *dbPath)
	fmt.Fprintf(os.Stderr, "  Iterations: %d\n\n", *iterations)

	// 1. Rule extraction alone (no store)
	extractTimes := benchmarkExtract(transcripts, *iterations)
	report.Results = append(report.Results, computeResult("extract_rules", extractTimes, 5))

	// 2. Full pipeline: validate, extract, normalize, record
	pipelineTimes := benchmarkPipeline(ctx, engine, transcripts, *iterations)
	report.Results = append(report.Results, computeResult("extract_and_record", pipelineTimes, 50))

	// 3. History listing against the freshly written runs
	listTimes := benchmarkList(ctx, s, *iterations)
	report.Results = append(report.Results, computeResult("history_list", listTimes, 50))

	for i := range report.Results {
		if !report.Results[i].Pass {
			report.AllPass = false
		}
	}

	stats, err := s.Stats(ctx)
	if err == nil {
		report.RunCount = int(stats.RunCount)
		report.FieldCount = int(stats.FieldCount)
	}

	for _, r := range report.Results {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(os.Stderr, "  %s: p50=%.2fms p95=%.2fms p99=%.2fms (SLO: %.0fms) %s\n",
			r.Operation, r.P50Ms, r.P95Ms, r.P99Ms, r.SLOMs, status)
	}

	if report.AllPass {
		fmt.Fprintf(os.Stderr, "\nAll SLOs met\n")
	} else {
		fmt.Fprintf(os.Stderr, "\nSome SLOs missed\n")
	}

	jsonBytes, _ := json.MarshalIndent(report, "", "  ")
	if *outFile != "" {
		os.WriteFile(*outFile, jsonBytes, 0644)
		fmt.Fprintf(os.Stderr, "\nReport written to %s\n", *outFile)
	} else {
		fmt.Println(string(jsonBytes))
	}
}

func benchmarkExtract(transcripts []string, iterations int) []float64 {
	ex := extract.NewExtractor()
	var times []float64
	for i := 0; i < iterations; i++ {
		t := transcripts[i%len(transcripts)]
		start := time.Now()
		_ = extract.NormalizeResult(ex.Extract(t))
		times = append(times, float64(time.Since(start).Microseconds())/1000.0)
	}
	return times
}

func benchmarkPipeline(ctx context.Context, engine *forms.Engine, transcripts []string, iterations int) []float64 {
	var times []float64
	for i := 0; i < iterations; i++ {
		t := transcripts[i%len(transcripts)]
		start := time.Now()
		_, _ = engine.ExtractOne(ctx, t, store.ExtractorRules)
		times = append(times, float64(time.Since(start).Microseconds())/1000.0)
	}
	return times
}

func benchmarkList(ctx context.Context, s store.Store, iterations int) []float64 {
	var times []float64
	for i := 0; i < iterations; i++ {
		start := time.Now()
		_, _ = s.ListRuns(ctx, store.ListOpts{Limit: 20})
		times = append(times, float64(time.Since(start).Microseconds())/1000.0)
	}
	return times
}

func computeResult(name string, times []float64, sloMs float64) BenchResult {
	sort.Float64s(times)
	n := len(times)
	if n == 0 {
		return BenchResult{Operation: name, SLOMs: sloMs}
	}

	sum := 0.0
	for _, t := range times {
		sum += t
	}

	p95 := times[min(int(float64(n)*0.95), n-1)]
	return BenchResult{
		Operation:  name,
		Iterations: n,
		P50Ms:      times[n/2],
		P95Ms:      p95,
		P99Ms:      times[min(int(float64(n)*0.99), n-1)],
		MinMs:      times[0],
		MaxMs:      times[n-1],
		MeanMs:     sum / float64(n),
		SLOMs:      sloMs,
		Pass:       p95 <= sloMs,
	}
}
