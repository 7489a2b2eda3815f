package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/cache"
	"github.com/ppiankov/startupscout/internal/model"
)

// Extractor sends extraction prompts to a provider with fixed sampling and
// a per-call timeout. Successful completions are cached when a cache is set.
type Extractor struct {
	provider Provider
	config   Config
	cache    cache.Cache
	logger   *zap.Logger
}

// NewExtractor wires a provider to an optional completion cache. A nil cache
// disables caching.
func NewExtractor(provider Provider, config Config, c cache.Cache, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	return &Extractor{
		provider: provider,
		config:   config,
		cache:    c,
		logger:   logger.With(zap.String("component", "extractor"), zap.String("provider", provider.Name())),
	}
}

// Extract returns the raw completion for prompt. Every failure, including
// the timeout, is reported as model.ErrTransport.
func (e *Extractor) Extract(ctx context.Context, prompt string) (string, error) {
	key := cache.CompletionKey(e.provider.Name(), e.config.Model, prompt)
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			e.logger.Debug("completion served from cache")
			return string(data), nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.provider.Complete(callCtx, CompletionRequest{
		Prompt:      prompt,
		Model:       e.config.Model,
		Temperature: e.config.Temperature,
		TopP:        e.config.TopP,
		MaxTokens:   e.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", model.ErrTransport, e.provider.Name(), err)
	}

	e.logger.Debug("completion received",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", time.Since(start)))

	if e.cache != nil {
		if err := e.cache.Set(key, []byte(resp.Text), 0); err != nil {
			e.logger.Warn("failed to cache completion", zap.Error(err))
		}
	}

	return resp.Text, nil
}

// Provider returns the wrapped provider
func (e *Extractor) Provider() Provider {
	return e.provider
}
