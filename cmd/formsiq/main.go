package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "extract":
		if err := runExtract(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "batch":
		if err := runBatch(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "config":
		if err := runConfig(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("formsiq %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`formsiq %s — Form 1003 field extraction from mortgage call transcripts

Usage:
  formsiq <command> [arguments]

Commands:
  extract [text]      Extract fields from a transcript (file via --file, stdin if omitted)
  batch <file.csv>    Extract fields from every row of a transcript CSV
  serve               Start the demo web form and JSON API
  mcp                 Start the MCP server on stdio
  history             List recent extraction runs
  config              Show the resolved configuration and where each value came from
  version             Print version

Extract Flags:
  --extractor <name>  Extraction strategy: rules (default) or llm
  --llm <spec>        LLM as provider/model, e.g. openai/gpt-4o-mini
  --file <path>       Read the transcript from a file
  --json              Print raw JSON instead of a table

Common Flags:
  --db <path>         History database path (default ~/.formsiq/formsiq.db)
  --config <path>     Config file path (default ~/.formsiq/config.yaml)
  --no-history        Do not record runs in the history database
  -h, --help          Show this help message
  -v, --version       Print version

Environment:
  FORMSIQ_LLM, FORMSIQ_DB, FORMSIQ_PORT, FORMSIQ_LLM_ENDPOINT, FORMSIQ_LLM_API_KEY
`, version)
}
