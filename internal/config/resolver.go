// Package config resolves FormsIQ settings from the config file, environment
// variables, and CLI flags, tracking where each value came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueSource identifies where a resolved value came from.
type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is one setting with provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI-level inputs into resolution.
type ResolveOptions struct {
	ConfigPath string
	CLILLM     string
	CLIDBPath  string
	CLIPort    string
}

// ResolvedConfig is the full resolved configuration.
// Precedence per value: CLI > env > config file > default.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath ResolvedValue `json:"db_path"`
	LLM    ResolvedValue `json:"llm"`
	Port   ResolvedValue `json:"port"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	LLM    string `yaml:"llm"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// Defaults applied when nothing else sets a value.
const (
	DefaultDBPath = "~/.formsiq/formsiq.db"
	DefaultPort   = "8795"
)

// DefaultConfigPath returns ~/.formsiq/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".formsiq", "config.yaml")
}

// ResolveConfig resolves all settings from every source.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{
		ConfigPath: path,
		DBPath:     ResolvedValue{Value: DefaultDBPath, Source: SourceDefault},
		Port:       ResolvedValue{Value: DefaultPort, Source: SourceDefault},
		LLM:        ResolvedValue{Source: SourceUnknown},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.LLM, cfg.LLM, SourceConfig, path)
		apply(&out.Port, cfg.Server.Port, SourceConfig, path)
	}

	apply(&out.DBPath, os.Getenv("FORMSIQ_DB"), SourceEnv, "FORMSIQ_DB")
	apply(&out.LLM, os.Getenv("FORMSIQ_LLM"), SourceEnv, "FORMSIQ_LLM")
	apply(&out.Port, os.Getenv("FORMSIQ_PORT"), SourceEnv, "FORMSIQ_PORT")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "")
	apply(&out.LLM, opts.CLILLM, SourceCLI, "")
	apply(&out.Port, opts.CLIPort, SourceCLI, "")

	return out, nil
}

// loadConfig reads the YAML config file. A missing file is not an error.
func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply overwrites dst when the candidate value is non-empty.
func apply(dst *ResolvedValue, value string, source ValueSource, from string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = ResolvedValue{Value: value, Source: source, From: from}
}

// ExpandedDBPath returns the DB path with ~ expanded.
func (c ResolvedConfig) ExpandedDBPath() string {
	return expandPath(c.DBPath.Value)
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
