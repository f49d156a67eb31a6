package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrMissingAPIKey is returned by RequireCredentials when a provider that
// needs a credential has none configured.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrConfigExists is returned by WriteDefault when the target file is
// already present.
var ErrConfigExists = errors.New("config file already exists")

// DefaultPromptTemplate is the instruction sent to the model for idea
// extraction. The article text is substituted for {{.Post}}.
const DefaultPromptTemplate = "extract 5-10 content ideas from the [post], and return the list in json format, [post]: {{.Post}}"

// Config holds all application configuration.
type Config struct {
	AI       AIConfig       `toml:"ai"`
	Search   SearchConfig   `toml:"search"`
	Fetch    FetchConfig    `toml:"fetch"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Output   OutputConfig   `toml:"output"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// AIConfig holds language model provider settings.
type AIConfig struct {
	Provider       string        `toml:"provider"`
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	TimeoutSeconds int           `toml:"timeout_seconds"`
	Extract        ExtractConfig `toml:"extract"`
	Expand         CallConfig    `toml:"expand"`
}

// CallConfig holds the generation settings for one kind of model call.
type CallConfig struct {
	Model           string  `toml:"model"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
	Creativity      float64 `toml:"creativity"`
}

// ExtractConfig holds the settings for the structured idea extraction call.
type ExtractConfig struct {
	Model           string  `toml:"model"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
	Creativity      float64 `toml:"creativity"`
	Template        string  `toml:"template"`
}

// Call returns the generation settings of the extraction call.
func (e ExtractConfig) Call() CallConfig {
	return CallConfig{
		Model:           e.Model,
		MaxOutputTokens: e.MaxOutputTokens,
		Creativity:      e.Creativity,
	}
}

// SearchConfig holds search provider settings and the default query.
type SearchConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Query          string `toml:"query"`
	ResultCount    int    `toml:"result_count"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FetchConfig holds article download settings.
type FetchConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxWords          int     `toml:"max_words"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PipelineConfig bounds how much work runs at once.
type PipelineConfig struct {
	ResultConcurrency int `toml:"result_concurrency"`
	IdeaConcurrency   int `toml:"idea_concurrency"`
}

// OutputConfig selects the document format written at the end of a run.
type OutputConfig struct {
	Format string `toml:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

const defaultConfigContent = `[ai]
provider = "openai"               # "openai", "anthropic" or "ollama"
api_key = ""                      # or set OPENAI_API_KEY / ANTHROPIC_API_KEY / AI_API_KEY
base_url = ""                     # optional endpoint override (OLLAMA_BASE_URL for ollama)
timeout_seconds = 60

[ai.extract]
model = "gpt-4o-mini"
max_output_tokens = 1024
creativity = 0.2
template = "extract 5-10 content ideas from the [post], and return the list in json format, [post]: {{.Post}}"

[ai.expand]
model = "gpt-4o-mini"
max_output_tokens = 150
creativity = 0.7

[search]
provider = "duckduckgo"           # "duckduckgo", "brave", "tavily" or "news"
api_key = ""                      # brave and tavily only (or BRAVE_API_KEY / TAVILY_API_KEY)
query = "AI in marketing"
result_count = 10
timeout_seconds = 15

[fetch]
timeout_seconds = 30
max_words = 5000
requests_per_second = 1.0

[pipeline]
result_concurrency = 1
idea_concurrency = 1

[output]
format = "json"                   # "json", "yaml", "markdown" or "html"

[server]
host = "localhost"
port = 8080

[log]
level = "info"
`

// Load reads and parses the TOML config from the given path. A missing file
// is not an error: built-in defaults are used. Environment variables
// override values from the file with highest priority.
func Load(path string) (*Config, error) {
	var (
		cfg Config
		md  toml.MetaData
	)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		md, err = toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			slog.Warn("unknown config keys ignored", "keys", fmt.Sprint(undecoded))
		}
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "result_count = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, md)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() (*Config, error) {
	var cfg Config
	applyDefaults(&cfg, toml.MetaData{})
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteDefault writes the default config content to the given path,
// creating any parent directories as needed. An existing file is never
// overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
// This catches cases like "max_words = 0" which would otherwise be silently
// replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	positive := []struct {
		key   []string
		value int
	}{
		{[]string{"ai", "timeout_seconds"}, cfg.AI.TimeoutSeconds},
		{[]string{"ai", "extract", "max_output_tokens"}, cfg.AI.Extract.MaxOutputTokens},
		{[]string{"ai", "expand", "max_output_tokens"}, cfg.AI.Expand.MaxOutputTokens},
		{[]string{"search", "result_count"}, cfg.Search.ResultCount},
		{[]string{"search", "timeout_seconds"}, cfg.Search.TimeoutSeconds},
		{[]string{"fetch", "timeout_seconds"}, cfg.Fetch.TimeoutSeconds},
		{[]string{"fetch", "max_words"}, cfg.Fetch.MaxWords},
		{[]string{"pipeline", "result_concurrency"}, cfg.Pipeline.ResultConcurrency},
		{[]string{"pipeline", "idea_concurrency"}, cfg.Pipeline.IdeaConcurrency},
	}
	for _, p := range positive {
		if md.IsDefined(p.key...) && p.value < 1 {
			return fmt.Errorf("invalid %s %d: must be >= 1", strings.Join(p.key, "."), p.value)
		}
	}

	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("fetch", "requests_per_second") && cfg.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid fetch.requests_per_second %g: must be > 0", cfg.Fetch.RequestsPerSecond)
	}
	if md.IsDefined("ai", "extract", "template") && strings.TrimSpace(cfg.AI.Extract.Template) == "" {
		return errors.New("invalid ai.extract.template: must not be empty")
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Creativity
// is a float where zero is meaningful, so it is only defaulted when the key
// is absent from the file.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.Extract.Model == "" {
		cfg.AI.Extract.Model = defaultModel(cfg.AI.Provider)
	}
	if cfg.AI.Extract.MaxOutputTokens == 0 {
		cfg.AI.Extract.MaxOutputTokens = 1024
	}
	if !md.IsDefined("ai", "extract", "creativity") {
		cfg.AI.Extract.Creativity = 0.2
	}
	if cfg.AI.Extract.Template == "" {
		cfg.AI.Extract.Template = DefaultPromptTemplate
	}
	if cfg.AI.Expand.Model == "" {
		cfg.AI.Expand.Model = defaultModel(cfg.AI.Provider)
	}
	if cfg.AI.Expand.MaxOutputTokens == 0 {
		cfg.AI.Expand.MaxOutputTokens = 150
	}
	if !md.IsDefined("ai", "expand", "creativity") {
		cfg.AI.Expand.Creativity = 0.7
	}

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "duckduckgo"
	}
	if cfg.Search.Query == "" {
		cfg.Search.Query = "AI in marketing"
	}
	if cfg.Search.ResultCount == 0 {
		cfg.Search.ResultCount = 10
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = 15
	}

	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 30
	}
	if cfg.Fetch.MaxWords == 0 {
		cfg.Fetch.MaxWords = 5000
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = 1
	}

	if cfg.Pipeline.ResultConcurrency == 0 {
		cfg.Pipeline.ResultConcurrency = 1
	}
	if cfg.Pipeline.IdeaConcurrency == 0 {
		cfg.Pipeline.IdeaConcurrency = 1
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// defaultModel returns the model used for both calls when none is
// configured.
func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-haiku-4-5"
	case "ollama":
		return "llama3.1"
	default:
		return "gpt-4o-mini"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. ANTHROPIC_API_KEY (when provider is "anthropic")
//  3. OPENAI_API_KEY (when provider is "openai")
func applyEnvOverrides(cfg *Config) error {
	// Apply provider-specific env var first (lower priority).
	switch cfg.AI.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "ollama":
		if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
			cfg.AI.BaseURL = v
		}
	}

	// AI_API_KEY overrides everything (highest priority).
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	switch cfg.Search.Provider {
	case "brave":
		if v := os.Getenv("BRAVE_API_KEY"); v != "" {
			cfg.Search.APIKey = v
		}
	case "tavily":
		if v := os.Getenv("TAVILY_API_KEY"); v != "" {
			cfg.Search.APIKey = v
		}
	}

	if v := os.Getenv("IDEAFORGE_QUERY"); v != "" {
		cfg.Search.Query = v
	}
	if v := os.Getenv("IDEAFORGE_RESULT_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing IDEAFORGE_RESULT_COUNT %q: %w", v, err)
		}
		cfg.Search.ResultCount = n
	}
	return nil
}

// Validate checks that configuration values are within acceptable ranges.
// It is exported so callers that apply command-line overrides can re-check
// the result.
func (cfg *Config) Validate() error {
	switch cfg.AI.Provider {
	case "anthropic", "openai", "ollama":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"openai\", \"anthropic\" or \"ollama\"", cfg.AI.Provider)
	}

	if err := validateCall("ai.extract", cfg.AI.Extract.Call()); err != nil {
		return err
	}
	if err := validateCall("ai.expand", cfg.AI.Expand); err != nil {
		return err
	}
	if cfg.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid ai.timeout_seconds %d: must be >= 1", cfg.AI.TimeoutSeconds)
	}

	switch cfg.Search.Provider {
	case "duckduckgo", "brave", "tavily", "news":
		// valid
	default:
		return fmt.Errorf("invalid search.provider %q: must be \"duckduckgo\", \"brave\", \"tavily\" or \"news\"", cfg.Search.Provider)
	}
	if cfg.Search.ResultCount < 1 {
		return fmt.Errorf("invalid search.result_count %d: must be >= 1", cfg.Search.ResultCount)
	}

	if cfg.Fetch.MaxWords < 1 {
		return fmt.Errorf("invalid fetch.max_words %d: must be >= 1", cfg.Fetch.MaxWords)
	}
	if cfg.Pipeline.ResultConcurrency < 1 || cfg.Pipeline.IdeaConcurrency < 1 {
		return fmt.Errorf("invalid pipeline concurrency %d/%d: must be >= 1",
			cfg.Pipeline.ResultConcurrency, cfg.Pipeline.IdeaConcurrency)
	}

	switch cfg.Output.Format {
	case "json", "yaml", "markdown", "html":
		// valid
	default:
		return fmt.Errorf("invalid output.format %q: must be \"json\", \"yaml\", \"markdown\" or \"html\"", cfg.Output.Format)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}

	return nil
}

func validateCall(section string, c CallConfig) error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("invalid %s.model: must not be empty", section)
	}
	if c.MaxOutputTokens < 1 || c.MaxOutputTokens > 16384 {
		return fmt.Errorf("invalid %s.max_output_tokens %d: must be between 1 and 16384", section, c.MaxOutputTokens)
	}
	if c.Creativity < 0 || c.Creativity > 2 {
		return fmt.Errorf("invalid %s.creativity %g: must be between 0 and 2", section, c.Creativity)
	}
	return nil
}

// RequireCredentials reports whether the selected providers have the
// credentials they need. It is checked once at startup, before any work.
func (cfg *Config) RequireCredentials() error {
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("%w: set ai.api_key, OPENAI_API_KEY or AI_API_KEY", ErrMissingAPIKey)
		}
	case "anthropic":
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("%w: set ai.api_key, ANTHROPIC_API_KEY or AI_API_KEY", ErrMissingAPIKey)
		}
	}

	switch cfg.Search.Provider {
	case "brave":
		if cfg.Search.APIKey == "" {
			return fmt.Errorf("%w: set search.api_key or BRAVE_API_KEY", ErrMissingAPIKey)
		}
	case "tavily":
		if cfg.Search.APIKey == "" {
			return fmt.Errorf("%w: set search.api_key or TAVILY_API_KEY", ErrMissingAPIKey)
		}
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}
