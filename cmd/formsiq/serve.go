package main

import (
	"fmt"
	"strings"

	"github.com/formsiq/formsiq/internal/mcp"
	"github.com/formsiq/formsiq/internal/server"
)

func runServe(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}

	port := ""
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == "--port" && i+1 < len(rest):
			i++
			port = rest[i]
		default:
			return fmt.Errorf("unknown argument: %s", rest[i])
		}
	}

	engine, st, cfg, err := buildEngine(opts, port)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	if engine.HasDelegated() {
		fmt.Printf("LLM extractor: %s\n", cfg.LLM.Value)
	} else {
		fmt.Println("LLM extractor: not configured (rule-based only)")
	}

	return server.Serve(server.ServerConfig{
		Engine:  engine,
		History: st,
		Port:    cfg.Port.Value,
	})
}

func runMCP(args []string) error {
	opts := commonOpts{}
	rest, err := parseCommon(args, &opts)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unknown argument: %s", strings.Join(rest, " "))
	}

	engine, st, _, err := buildEngine(opts, "")
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	srv := mcp.NewServer(mcp.ServerConfig{
		Engine:  engine,
		Store:   st,
		Version: version,
	})
	return mcp.ServeStdio(srv)
}
