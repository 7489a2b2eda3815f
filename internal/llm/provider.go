package llm

import (
	"context"
	"time"
)

// Provider is a text-completion endpoint
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw completion text
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Ping checks that the endpoint is reachable and the credentials work
	Ping(ctx context.Context) error
}

// CompletionRequest is a single prompt with its sampling parameters.
// Zero values fall back to the provider's Config.
type CompletionRequest struct {
	Prompt      string
	System      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Completion is the provider's answer
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "ollama", "openai", "anthropic"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for a single request
	Timeout time.Duration

	// Sampling defaults
	Temperature float64
	TopP        float64
	MaxTokens   int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns the low-variance settings extraction runs with
func DefaultConfig() Config {
	return Config{
		Provider:    "ollama",
		Model:       "llama2",
		Timeout:     120 * time.Second,
		Temperature: 0.1,
		TopP:        0.9,
		MaxTokens:   1024,
	}
}

// withDefaults fills zero-valued request fields from the provider config
func (c Config) withDefaults(req CompletionRequest) CompletionRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	if req.TopP == 0 {
		req.TopP = c.TopP
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	return req
}
