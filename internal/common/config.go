package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that decodes from TOML strings like "30s".
// go-toml maps TOML strings onto types implementing encoding.TextUnmarshaler.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	SearxNG     SearxNGConfig   `toml:"searxng"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Cache       CacheConfig     `toml:"cache"`
	FileIndex   FileIndexConfig `toml:"file_index"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Agent       AgentConfig     `toml:"agent"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// SearxNGConfig contains the web search backend configuration
type SearxNGConfig struct {
	BaseURL        string        `toml:"base_url" validate:"required,url"` // SearxNG instance endpoint
	Language       string        `toml:"language"`                         // Query language hint (default: "en")
	Engines        []string      `toml:"engines"`                          // Engine list sent with every query (empty = instance default)
	RequestTimeout Duration `toml:"request_timeout"`                  // HTTP request timeout
}

// FetcherConfig contains link fetching configuration
type FetcherConfig struct {
	UserAgent          string   `toml:"user_agent"`           // User agent string for page fetches
	RequestTimeout     Duration `toml:"request_timeout"`      // HTTP request timeout
	MaxBodySize        int      `toml:"max_body_size"`        // Maximum response body size in bytes
	RateLimit          Duration `toml:"rate_limit"`           // Minimum interval between requests to one host
	EnableJavaScript   bool     `toml:"enable_javascript"`    // Render pages with chromedp before extraction
	JavaScriptWaitTime Duration `toml:"javascript_wait_time"` // Time to wait for JavaScript to render
}

// CacheConfig contains fetched-page cache configuration
type CacheConfig struct {
	Enabled       bool     `toml:"enabled"`        // Cache fetched pages in Badger
	Path          string   `toml:"path"`           // Database directory path
	Freshness     Duration `toml:"freshness"`      // How long a cached page stays fresh
	PruneSchedule string   `toml:"prune_schedule"` // Cron schedule for removing stale entries
}

// FileIndexConfig locates pre-processed upload artifacts
type FileIndexConfig struct {
	Dir string `toml:"dir"` // Directory holding <id>-extracted.json / <id>-embeddings.json pairs
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	Model          string  `toml:"model"`           // Chat model (default: "gemini-3-flash-preview")
	EmbeddingModel string  `toml:"embedding_model"` // Embedding model (default: "text-embedding-004")
	Dimension      int     `toml:"dimension"`       // Embedding output dimensionality (default: 768)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	Temperature    float32 `toml:"temperature"`     // Chat completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Chat model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects providers per role. Embeddings always come from Gemini;
// Claude has no embedding endpoint.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"` // Chat provider: "gemini" or "claude"
}

// AgentConfig tunes the answer pipeline
type AgentConfig struct {
	SimilarityMeasure  string   `toml:"similarity_measure" validate:"oneof=cosine dot"` // "cosine" or "dot"
	SpeedThreshold     float64  `toml:"speed_threshold"`                                // Minimum similarity for file chunks in speed mode
	BalancedThreshold  float64  `toml:"balanced_threshold"`                             // Minimum similarity in balanced/quality mode
	SummaryConcurrency int      `toml:"summary_concurrency"`                            // Parallel link summarization calls (0 = unbounded)
	StreamDelaysOff    bool     `toml:"stream_delays_off"`                              // Disable pacing delays on the output stream
	SearchTimeout      Duration `toml:"search_timeout"`                                 // Per web-search call budget
	FetchTimeout       Duration `toml:"fetch_timeout"`                                  // Per link-fetch call budget
}

// WebSocketConfig tunes the live log feed pushed to connected clients
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast (default: "info")
	ExcludePatterns []string `toml:"exclude_patterns"` // Message substrings filtered from the feed
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in metaseek.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		SearxNG: SearxNGConfig{
			BaseURL:        "http://localhost:8888",
			Language:       "en",
			Engines:        []string{},
			RequestTimeout: Duration(15 * time.Second),
		},
		Fetcher: FetcherConfig{
			UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:     Duration(30 * time.Second),
			MaxBodySize:        10 * 1024 * 1024, // 10MB
			RateLimit:          Duration(500 * time.Millisecond),
			EnableJavaScript:   false,
			JavaScriptWaitTime: Duration(3 * time.Second),
		},
		Cache: CacheConfig{
			Enabled:       true,
			Path:          "./data/pagecache",
			Freshness:     Duration(1 * time.Hour),
			PruneSchedule: "0 0 * * * *", // Hourly
		},
		FileIndex: FileIndexConfig{
			Dir: "./data/uploads",
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (no fallback)
			Model:          "gemini-3-flash-preview",
			EmbeddingModel: "text-embedding-004",
			Dimension:      768,
			Timeout:        "2m",
			Temperature:    0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Agent: AgentConfig{
			SimilarityMeasure:  "cosine",
			SpeedThreshold:     0.3,
			BalancedThreshold:  0.1,
			SummaryConcurrency: 0, // One goroutine per link group
			SearchTimeout:      Duration(20 * time.Second),
			FetchTimeout:       Duration(30 * time.Second),
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
		},
	}
}

// ApplyFlagOverrides applies command-line flag values over the loaded
// configuration. Zero values leave the config untouched.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones. Priority: environment variables > last config
// file > ... > first config file > defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.LLM.DefaultProvider == LLMProviderClaude && c.Claude.APIKey == "" {
		return fmt.Errorf("invalid configuration: claude selected as provider but claude.api_key is empty")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("METASEEK_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("METASEEK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("METASEEK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("METASEEK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("METASEEK_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("METASEEK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Search backend
	if baseURL := os.Getenv("METASEEK_SEARXNG_URL"); baseURL != "" {
		config.SearxNG.BaseURL = baseURL
	}
	if language := os.Getenv("METASEEK_SEARXNG_LANGUAGE"); language != "" {
		config.SearxNG.Language = language
	}
	if engines := os.Getenv("METASEEK_SEARXNG_ENGINES"); engines != "" {
		list := []string{}
		for _, e := range strings.Split(engines, ",") {
			if trimmed := strings.TrimSpace(e); trimmed != "" {
				list = append(list, trimmed)
			}
		}
		config.SearxNG.Engines = list
	}

	// Fetcher
	if timeout := os.Getenv("METASEEK_FETCHER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Fetcher.RequestTimeout = Duration(d)
		}
	}
	if js := os.Getenv("METASEEK_FETCHER_JAVASCRIPT"); js != "" {
		if b, err := strconv.ParseBool(js); err == nil {
			config.Fetcher.EnableJavaScript = b
		}
	}

	// Cache
	if path := os.Getenv("METASEEK_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}
	if enabled := os.Getenv("METASEEK_CACHE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Cache.Enabled = b
		}
	}

	// File index
	if dir := os.Getenv("METASEEK_FILE_INDEX_DIR"); dir != "" {
		config.FileIndex.Dir = dir
	}

	// API keys
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if provider := os.Getenv("METASEEK_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}
