package llm

import "testing"

func TestParseLLMFlag(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	t.Setenv("FORMSIQ_LLM_ENDPOINT", "")
	t.Setenv("FORMSIQ_LLM_API_KEY", "")

	tests := []struct {
		name     string
		input    string
		wantProv string
		wantMod  string
		wantErr  bool
	}{
		{"openai", "openai/gpt-4o-mini", "openai", "gpt-4o-mini", false},
		{"ollama", "ollama/llama3.1", "ollama", "llama3.1", false},
		{"openrouter with nested slash", "openrouter/openai/gpt-4o-mini", "openrouter", "openai/gpt-4o-mini", false},
		{"unknown provider", "anthropic/claude", "", "", true},
		{"no slash", "gpt-4o-mini", "", "", true},
		{"empty", "", "", "", true},
		{"empty model", "openai/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseLLMFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Provider != tt.wantProv {
				t.Errorf("provider: got %q, want %q", cfg.Provider, tt.wantProv)
			}
			if cfg.Model != tt.wantMod {
				t.Errorf("model: got %q, want %q", cfg.Model, tt.wantMod)
			}
			if cfg.MaxTokens != 700 || cfg.MaxRetries != 3 || cfg.TimeoutSecs != 60 {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}
}

func TestParseLLMFlag_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FORMSIQ_LLM_ENDPOINT", "http://localhost:9999/v1/chat/completions")
	t.Setenv("FORMSIQ_LLM_API_KEY", "override-key")

	cfg, err := ParseLLMFlag("openai/gpt-4o-mini")
	if err != nil {
		t.Fatalf("ParseLLMFlag: %v", err)
	}
	if cfg.Endpoint != "http://localhost:9999/v1/chat/completions" {
		t.Errorf("endpoint override not applied: %q", cfg.Endpoint)
	}
	if cfg.APIKey != "override-key" {
		t.Errorf("api key override not applied: %q", cfg.APIKey)
	}
}

func TestResolveLLMConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FORMSIQ_LLM_ENDPOINT", "")
	t.Setenv("FORMSIQ_LLM_API_KEY", "")

	// CLI flag wins over env.
	t.Setenv("FORMSIQ_LLM", "ollama/llama3.1")
	cfg, err := ResolveLLMConfig("openai/gpt-4o-mini")
	if err != nil {
		t.Fatalf("ResolveLLMConfig: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider: got %q, want openai", cfg.Provider)
	}

	// Env used when no CLI flag.
	cfg, err = ResolveLLMConfig("")
	if err != nil {
		t.Fatalf("ResolveLLMConfig: %v", err)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("provider: got %q, want ollama", cfg.Provider)
	}

	// Nothing set: nil config, no error.
	t.Setenv("FORMSIQ_LLM", "")
	cfg, err = ResolveLLMConfig("")
	if err != nil {
		t.Fatalf("ResolveLLMConfig: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Endpoint:    "https://api.openai.com/v1/chat/completions",
		APIKey:      "sk-test",
		MaxTokens:   700,
		MaxRetries:  3,
		TimeoutSecs: 60,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing provider", func(c *Config) { c.Provider = "" }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero timeout", func(c *Config) { c.TimeoutSecs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := Config{
		Provider:    "ollama",
		Model:       "llama3.1",
		Endpoint:    "http://localhost:11434/v1/chat/completions",
		MaxTokens:   700,
		MaxRetries:  3,
		TimeoutSecs: 60,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("ollama config without key rejected: %v", err)
	}
}
