// Package source supplies comments to the pipeline.
package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/model"
)

// Source yields the comments of one discussion
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Comments returns at most limit comments for ref. A limit <= 0 means no cap.
	Comments(ctx context.Context, ref string, limit int) ([]model.Comment, error)
}

// New builds the source selected by cfg.Kind
func New(cfg model.SourceConfig, logger *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case "reddit", "":
		return NewReddit(cfg, logger), nil
	case "file":
		return NewFile(), nil
	default:
		return nil, fmt.Errorf("unknown source: %s (supported: reddit, file)", cfg.Kind)
	}
}

func capComments(comments []model.Comment, limit int) []model.Comment {
	if limit > 0 && len(comments) > limit {
		return comments[:limit]
	}
	return comments
}
