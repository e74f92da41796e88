package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", config.Server.Port)
	}
	if config.LLM.DefaultProvider != LLMProviderGemini {
		t.Errorf("DefaultProvider = %s, want gemini", config.LLM.DefaultProvider)
	}
	if config.Agent.SimilarityMeasure != "cosine" {
		t.Errorf("SimilarityMeasure = %q, want cosine", config.Agent.SimilarityMeasure)
	}
	if config.Agent.SpeedThreshold != 0.3 {
		t.Errorf("SpeedThreshold = %v, want 0.3", config.Agent.SpeedThreshold)
	}
	if config.Agent.BalancedThreshold != 0.1 {
		t.Errorf("BalancedThreshold = %v, want 0.1", config.Agent.BalancedThreshold)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metaseek.toml")
	content := `
[server]
port = 9090
host = "0.0.0.0"

[searxng]
base_url = "http://searx.local:8888"
engines = ["google"]

[agent]
similarity_measure = "dot"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", config.Server.Port)
	}
	if config.SearxNG.BaseURL != "http://searx.local:8888" {
		t.Errorf("SearxNG.BaseURL = %q", config.SearxNG.BaseURL)
	}
	if config.Agent.SimilarityMeasure != "dot" {
		t.Errorf("SimilarityMeasure = %q, want dot", config.Agent.SimilarityMeasure)
	}
	// Untouched sections keep their defaults.
	if config.Gemini.Model == "" {
		t.Error("Gemini.Model default was lost")
	}
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metaseek.toml")
	content := `
[searxng]
request_timeout = "45s"

[fetcher]
rate_limit = "250ms"

[cache]
freshness = "90m"

[agent]
fetch_timeout = "1m30s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if got := config.SearxNG.RequestTimeout.Std(); got != 45*time.Second {
		t.Errorf("SearxNG.RequestTimeout = %v, want 45s", got)
	}
	if got := config.Fetcher.RateLimit.Std(); got != 250*time.Millisecond {
		t.Errorf("Fetcher.RateLimit = %v, want 250ms", got)
	}
	if got := config.Cache.Freshness.Std(); got != 90*time.Minute {
		t.Errorf("Cache.Freshness = %v, want 90m", got)
	}
	if got := config.Agent.FetchTimeout.Std(); got != 90*time.Second {
		t.Errorf("Agent.FetchTimeout = %v, want 1m30s", got)
	}
}

func TestLoadFromFileRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metaseek.toml")
	content := `
[searxng]
request_timeout = "soon"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("unparseable duration should be an error")
	}
}

// The sample config shipped with the repo must load as-is.
func TestLoadShippedSampleConfig(t *testing.T) {
	config, err := LoadFromFile(filepath.Join("..", "..", "deployments", "local", "metaseek.toml"))
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if got := config.SearxNG.RequestTimeout.Std(); got != 10*time.Second {
		t.Errorf("SearxNG.RequestTimeout = %v, want 10s", got)
	}
	if got := config.Fetcher.JavaScriptWaitTime.Std(); got != 2*time.Second {
		t.Errorf("Fetcher.JavaScriptWaitTime = %v, want 2s", got)
	}
	if got := config.Cache.Freshness.Std(); got != time.Hour {
		t.Errorf("Cache.Freshness = %v, want 1h", got)
	}
	if got := config.Agent.SearchTimeout.Std(); got != 20*time.Second {
		t.Errorf("Agent.SearchTimeout = %v, want 20s", got)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/metaseek.toml"); err == nil {
		t.Error("missing config file should be an error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("METASEEK_SERVER_PORT", "7070")
	t.Setenv("METASEEK_SEARXNG_URL", "http://env-searx:8888")
	t.Setenv("GEMINI_API_KEY", "env-key")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles() error: %v", err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", config.Server.Port)
	}
	if config.SearxNG.BaseURL != "http://env-searx:8888" {
		t.Errorf("SearxNG.BaseURL = %q", config.SearxNG.BaseURL)
	}
	if config.Gemini.APIKey != "env-key" {
		t.Errorf("Gemini.APIKey = %q", config.Gemini.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Agent.SimilarityMeasure = "euclidean"
	if err := config.Validate(); err == nil {
		t.Error("unknown similarity measure should fail validation")
	}

	config = NewDefaultConfig()
	config.Server.Port = -1
	if err := config.Validate(); err == nil {
		t.Error("negative port should fail validation")
	}

	config = NewDefaultConfig()
	config.LLM.DefaultProvider = LLMProviderClaude
	config.Claude.APIKey = ""
	if err := config.Validate(); err == nil {
		t.Error("claude provider without api key should fail validation")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 8080 || config.Server.Host != "localhost" {
		t.Error("zero flag values must not override config")
	}

	ApplyFlagOverrides(config, 9999, "127.0.0.1")
	if config.Server.Port != 9999 || config.Server.Host != "127.0.0.1" {
		t.Errorf("flag overrides not applied: %d %s", config.Server.Port, config.Server.Host)
	}
}
