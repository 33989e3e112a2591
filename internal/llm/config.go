package llm

import (
	"fmt"
	"os"
	"strings"
)

// Config holds LLM provider configuration for the delegated extractor.
// It is constructed explicitly and injected into NewClient; there is no
// ambient client or global API key anywhere in the process.
type Config struct {
	Provider    string // "openai", "ollama", "deepseek", "openrouter", "custom"
	Model       string
	Endpoint    string // full chat-completions URL
	APIKey      string
	MaxTokens   int // output-length bound per request (default: 700)
	MaxRetries  int // default: 3
	TimeoutSecs int // per-request timeout (default: 60)
}

// ParseLLMFlag parses "--llm provider/model" format.
// Handles model names with slashes like "openrouter/openai/gpt-4o-mini".
func ParseLLMFlag(flag string) (*Config, error) {
	if flag == "" {
		return nil, fmt.Errorf("empty LLM flag")
	}

	slashIdx := strings.Index(flag, "/")
	if slashIdx == -1 {
		return nil, fmt.Errorf("invalid --llm format: expected 'provider/model', got %q", flag)
	}

	provider := flag[:slashIdx]
	model := flag[slashIdx+1:]

	if provider == "" {
		return nil, fmt.Errorf("empty provider in --llm flag: %q", flag)
	}
	if model == "" {
		return nil, fmt.Errorf("empty model in --llm flag: %q", flag)
	}

	config := &Config{
		Provider:    provider,
		Model:       model,
		MaxTokens:   700,
		MaxRetries:  3,
		TimeoutSecs: 60,
	}

	switch provider {
	case "openai":
		config.Endpoint = "https://api.openai.com/v1/chat/completions"
		config.APIKey = os.Getenv("OPENAI_API_KEY")
	case "ollama":
		config.Endpoint = "http://localhost:11434/v1/chat/completions"
		// No API key needed for Ollama
	case "deepseek":
		config.Endpoint = "https://api.deepseek.com/v1/chat/completions"
		config.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	case "openrouter":
		config.Endpoint = "https://openrouter.ai/api/v1/chat/completions"
		config.APIKey = os.Getenv("OPENROUTER_API_KEY")
	case "custom":
		config.Endpoint = os.Getenv("FORMSIQ_LLM_ENDPOINT")
		config.APIKey = os.Getenv("FORMSIQ_LLM_API_KEY")
	default:
		return nil, fmt.Errorf("unknown provider %q. Supported: openai, ollama, deepseek, openrouter, custom", provider)
	}

	// Environment overrides apply to every provider.
	if endpoint := os.Getenv("FORMSIQ_LLM_ENDPOINT"); endpoint != "" {
		config.Endpoint = endpoint
	}
	if apiKey := os.Getenv("FORMSIQ_LLM_API_KEY"); apiKey != "" {
		config.APIKey = apiKey
	}

	return config, nil
}

// ResolveLLMConfig resolves configuration from all sources.
// Priority: CLI flag > FORMSIQ_LLM env var. Returns nil when nothing is set.
func ResolveLLMConfig(cliFlag string) (*Config, error) {
	if cliFlag != "" {
		return ParseLLMFlag(cliFlag)
	}

	if envLLM := os.Getenv("FORMSIQ_LLM"); envLLM != "" {
		config, err := ParseLLMFlag(envLLM)
		if err != nil {
			return nil, fmt.Errorf("parsing FORMSIQ_LLM env var: %w", err)
		}
		return config, nil
	}

	return nil, nil
}

// Validate checks if the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return fmt.Errorf("API key is required for provider %q (set via environment variable)", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
