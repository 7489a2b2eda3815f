// Package pipeline runs comments through normalization, relevance
// filtering, model extraction, validation and persistence.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/extract"
	"github.com/ppiankov/startupscout/internal/model"
	"github.com/ppiankov/startupscout/internal/worker"
)

// CommentSource yields the comments of one discussion
type CommentSource interface {
	Comments(ctx context.Context, ref string, limit int) ([]model.Comment, error)
}

// Extractor turns a prompt into raw model output
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

// StartupStore persists extraction results
type StartupStore interface {
	InsertStartup(ctx context.Context, rec model.StoredStartup) (bool, error)
	HasComment(ctx context.Context, commentID string) (bool, error)
}

// Pipeline orchestrates one extraction run
type Pipeline struct {
	config    model.PipelineConfig
	source    CommentSource
	extractor Extractor
	store     StartupStore
	filter    *extract.RelevanceFilter
	logger    *zap.Logger
}

// NewPipeline wires the run's collaborators. source may be nil when only
// ProcessComments is used.
func NewPipeline(cfg model.PipelineConfig, source CommentSource, extractor Extractor, store StartupStore, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		config:    cfg,
		source:    source,
		extractor: extractor,
		store:     store,
		filter:    extract.NewRelevanceFilter(cfg.Keywords...),
		logger:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run pulls at most limit comments for ref (the configured limit when
// limit <= 0) and processes them. Only a source failure is returned as an
// error; everything else is counted in Stats.
func (p *Pipeline) Run(ctx context.Context, ref string, limit int) (*Stats, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no comment source configured", model.ErrSource)
	}
	if limit <= 0 {
		limit = p.config.Limit
	}

	comments, err := p.source.Comments(ctx, ref, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrSource, err)
	}

	p.logger.Info("processing comments",
		zap.String("ref", ref),
		zap.Int("comments", len(comments)),
		zap.Int("concurrency", max(p.config.Concurrency, 1)))

	stats := p.ProcessComments(ctx, comments)

	p.logger.Info("run complete", stats.Fields()...)
	return stats, nil
}

// ProcessComments runs every comment, sequentially or over a bounded pool
// when concurrency > 1. Cancelling ctx stops before the next comment.
func (p *Pipeline) ProcessComments(ctx context.Context, comments []model.Comment) *Stats {
	stats := &Stats{}

	if p.config.Concurrency > 1 {
		results := worker.NewBatchProcessor(p, p.config.Concurrency).Process(ctx, comments)
		for _, r := range results {
			stats.Add(r)
		}
		stats.Interrupted = len(results) < len(comments)
		return stats
	}

	for _, c := range comments {
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}
		stats.Add(p.ProcessComment(ctx, c))
	}

	return stats
}

// ProcessComment runs one comment end to end. Failures are recorded in the
// result and logged; they never propagate.
func (p *Pipeline) ProcessComment(ctx context.Context, c model.Comment) model.CommentResult {
	result := model.CommentResult{CommentID: c.ID}
	log := p.logger.With(zap.String("comment_id", c.ID))

	// 1. Cheap structural checks
	if reason := p.precheck(c); reason != model.SkipNone {
		result.Skip = reason
		log.Debug("comment skipped", zap.String("reason", string(reason)))
		return result
	}

	// 2. Relevance
	term, ok := p.filter.Match(c.Body)
	if !ok {
		result.Skip = model.SkipIrrelevant
		log.Debug("comment skipped", zap.String("reason", string(model.SkipIrrelevant)))
		return result
	}

	// 3. Already persisted by an earlier run
	if p.config.SkipProcessed {
		done, err := p.store.HasComment(ctx, c.ID)
		switch {
		case err != nil:
			log.Warn("processed check failed, extracting anyway", zap.Error(err))
		case done:
			result.Skip = model.SkipProcessed
			log.Debug("comment skipped", zap.String("reason", string(model.SkipProcessed)))
			return result
		}
	}

	// 4. Extract
	result.Processed = true
	log.Debug("extracting", zap.String("matched", term))

	prompt := extract.BuildPrompt(extract.Normalize(c.Body))
	raw, err := p.extractor.Extract(ctx, prompt)
	if err != nil {
		result.Err = err
		log.Error("model call failed", zap.Error(err))
		return result
	}

	// 5. Parse and validate
	records, err := extract.ParseResponse(raw)
	if err != nil {
		result.Err = err
		log.Warn("unusable model output", zap.Error(err), zap.Int("response_bytes", len(raw)))
		return result
	}
	result.Extracted = len(records)

	kept, discarded := extract.Gate(records)
	result.Discarded = discarded

	// 6. Persist, keyed by position among kept records
	for seq, rec := range kept {
		row := model.NewStoredStartup(rec, c, seq)

		inserted, err := p.store.InsertStartup(ctx, row)
		switch {
		case err != nil:
			result.StorageFailures++
			log.Error("failed to store startup", zap.String("key", row.CommentID), zap.Error(err))
		case inserted:
			result.Stored++
			log.Info("startup stored", zap.String("key", row.CommentID), zap.String("name", row.StartupName))
		default:
			result.Duplicates++
			log.Debug("startup already stored", zap.String("key", row.CommentID))
		}
	}

	return result
}

func (p *Pipeline) precheck(c model.Comment) model.SkipReason {
	switch {
	case c.Body == "":
		return model.SkipEmpty
	case c.IsDeleted():
		return model.SkipDeleted
	case utf8.RuneCountInString(strings.TrimSpace(c.Body)) < p.config.MinLength:
		return model.SkipTooShort
	}
	return model.SkipNone
}
