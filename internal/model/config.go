package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all startupscout configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// SourceConfig controls where comments come from and how politely they are fetched
type SourceConfig struct {
	Kind              string        `mapstructure:"kind" yaml:"kind" validate:"oneof=reddit file"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"` // Used to resolve bare post IDs
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"min=1024"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" yaml:"burst" validate:"min=1"`
	RespectRobots     bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	HTTPProxy         string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty" validate:"omitempty,url"`
	HTTPSProxy        string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty" validate:"omitempty,url"`
}

// LLMConfig holds inference endpoint configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider" validate:"oneof=ollama openai anthropic"`
	Model       string        `mapstructure:"model" yaml:"model" validate:"required"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key,omitempty"` // Prefer STARTUPSCOUT_LLM_API_KEY
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	TopP        float64       `mapstructure:"top_p" yaml:"top_p" validate:"gt=0,max=1"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=1"`
	HTTPProxy   string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty" validate:"omitempty,url"`
	HTTPSProxy  string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty" validate:"omitempty,url"`
}

// StoreConfig points at the SQLite database
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// PipelineConfig tunes comment selection and processing
type PipelineConfig struct {
	Limit         int      `mapstructure:"limit" yaml:"limit" validate:"min=1"`
	MinLength     int      `mapstructure:"min_length" yaml:"min_length" validate:"min=0"` // Runes, after trimming
	Concurrency   int      `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
	SkipProcessed bool     `mapstructure:"skip_processed" yaml:"skip_processed"`
	Keywords      []string `mapstructure:"keywords" yaml:"keywords" validate:"min=1,dive,required"`
}

// CacheConfig controls the model response cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"min=0"`
	Dir     string        `mapstructure:"dir" yaml:"dir,omitempty"` // Empty keeps the cache in memory only
}

// LogConfig selects log verbosity and encoding
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// ReportConfig controls report rendering
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json yaml"`
}

// DefaultKeywords is the relevance vocabulary used when none is configured
var DefaultKeywords = []string{
	"startup", "company", "founder", "launch", "product", "app",
	"platform", "saas", "tech", "venture", "funding", "seed",
	"round", "investor", "yc", "accelerator", "built", "created",
	"founded", "business", "entrepreneur",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	keywords := make([]string, len(DefaultKeywords))
	copy(keywords, DefaultKeywords)

	return &Config{
		Source: SourceConfig{
			Kind:              "reddit",
			BaseURL:           "https://www.reddit.com",
			UserAgent:         "startupscout/0.1 (+https://github.com/ppiankov/startupscout)",
			Timeout:           30 * time.Second,
			MaxBodyBytes:      10_000_000,
			RequestsPerSecond: 1,
			Burst:             1,
			RespectRobots:     false,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama2",
			Timeout:     120 * time.Second,
			Temperature: 0.1,
			TopP:        0.9,
			MaxTokens:   1024,
		},
		Store: StoreConfig{
			Path: "startups.db",
		},
		Pipeline: PipelineConfig{
			Limit:         30,
			MinLength:     25,
			Concurrency:   1,
			SkipProcessed: true,
			Keywords:      keywords,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
