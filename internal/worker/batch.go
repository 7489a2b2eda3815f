package worker

import (
	"context"
	"sort"

	"github.com/ppiankov/startupscout/internal/model"
)

// CommentProcessor runs the per-comment pipeline
type CommentProcessor interface {
	ProcessComment(ctx context.Context, c model.Comment) model.CommentResult
}

type indexedResult struct {
	index  int
	result model.CommentResult
}

// BatchProcessor fans comments out over a bounded pool
type BatchProcessor struct {
	processor   CommentProcessor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor CommentProcessor, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// Process runs every comment and returns results in input order. Comments
// not started before ctx was cancelled have no result.
func (b *BatchProcessor) Process(ctx context.Context, comments []model.Comment) []model.CommentResult {
	if len(comments) == 0 {
		return []model.CommentResult{}
	}

	pool := NewPool[indexedResult](ctx, b.concurrency)
	pool.Start()

	for i, c := range comments {
		submitted := pool.Submit(JobFunc[indexedResult](func(ctx context.Context) indexedResult {
			return indexedResult{index: i, result: b.processor.ProcessComment(ctx, c)}
		}))
		if !submitted {
			break
		}
	}

	indexed := pool.Wait()
	sort.Slice(indexed, func(x, y int) bool { return indexed[x].index < indexed[y].index })

	results := make([]model.CommentResult, len(indexed))
	for i, r := range indexed {
		results[i] = r.result
	}
	return results
}
