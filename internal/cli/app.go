package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/cache"
	"github.com/ppiankov/startupscout/internal/llm"
	"github.com/ppiankov/startupscout/internal/model"
	"github.com/ppiankov/startupscout/internal/pipeline"
	"github.com/ppiankov/startupscout/internal/source"
	"github.com/ppiankov/startupscout/internal/store"
)

// newExtractor builds the configured provider behind the response cache
func newExtractor(cfg *model.Config, logger *zap.Logger) (*llm.Extractor, error) {
	llmCfg := llm.ConfigFromModel(cfg.LLM)

	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return llm.NewExtractor(provider, llmCfg, cache.New(cfg.Cache), logger), nil
}

// newPipeline wires source, extractor and store into one pipeline
func newPipeline(cfg *model.Config, st *store.Store, logger *zap.Logger) (*pipeline.Pipeline, error) {
	src, err := source.New(cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	ext, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.NewPipeline(cfg.Pipeline, src, ext, st, logger), nil
}
