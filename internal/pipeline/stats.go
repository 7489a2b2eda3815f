package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/model"
)

// Stats aggregates per-comment outcomes for one run
type Stats struct {
	Seen             int `json:"seen"`
	Skipped          int `json:"skipped"` // Empty, deleted or too short
	Irrelevant       int `json:"irrelevant"`
	AlreadyProcessed int `json:"already_processed"`
	Processed        int `json:"processed"` // Model invoked
	ModelFailures    int `json:"model_failures"`
	ParseFailures    int `json:"parse_failures"`
	Extracted        int `json:"extracted"`
	Discarded        int `json:"discarded"`
	Stored           int `json:"stored"`
	Duplicates       int `json:"duplicates"`
	StorageFailures  int `json:"storage_failures"`

	Interrupted bool `json:"interrupted,omitempty"`
}

// Add folds one comment result into the totals
func (s *Stats) Add(r model.CommentResult) {
	s.Seen++

	switch r.Skip {
	case model.SkipNone:
	case model.SkipIrrelevant:
		s.Irrelevant++
	case model.SkipProcessed:
		s.AlreadyProcessed++
	default:
		s.Skipped++
	}

	if r.Processed {
		s.Processed++
	}

	switch {
	case r.Err == nil:
	case errors.Is(r.Err, model.ErrMalformedOutput):
		s.ParseFailures++
	default:
		s.ModelFailures++
	}

	s.Extracted += r.Extracted
	s.Discarded += r.Discarded
	s.Stored += r.Stored
	s.Duplicates += r.Duplicates
	s.StorageFailures += r.StorageFailures
}

// Merge adds another run's totals
func (s *Stats) Merge(o *Stats) {
	s.Seen += o.Seen
	s.Skipped += o.Skipped
	s.Irrelevant += o.Irrelevant
	s.AlreadyProcessed += o.AlreadyProcessed
	s.Processed += o.Processed
	s.ModelFailures += o.ModelFailures
	s.ParseFailures += o.ParseFailures
	s.Extracted += o.Extracted
	s.Discarded += o.Discarded
	s.Stored += o.Stored
	s.Duplicates += o.Duplicates
	s.StorageFailures += o.StorageFailures
	s.Interrupted = s.Interrupted || o.Interrupted
}

// Fields renders the totals as structured log fields
func (s *Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("seen", s.Seen),
		zap.Int("skipped", s.Skipped),
		zap.Int("irrelevant", s.Irrelevant),
		zap.Int("already_processed", s.AlreadyProcessed),
		zap.Int("processed", s.Processed),
		zap.Int("model_failures", s.ModelFailures),
		zap.Int("parse_failures", s.ParseFailures),
		zap.Int("extracted", s.Extracted),
		zap.Int("discarded", s.Discarded),
		zap.Int("stored", s.Stored),
		zap.Int("duplicates", s.Duplicates),
		zap.Int("storage_failures", s.StorageFailures),
		zap.Bool("interrupted", s.Interrupted),
	}
}

// String is a one-line summary for terminal output
func (s *Stats) String() string {
	return fmt.Sprintf("%d comments: %d processed, %d stored, %d duplicates, %d skipped, %d irrelevant, %d already processed, %d model failures, %d parse failures",
		s.Seen, s.Processed, s.Stored, s.Duplicates, s.Skipped, s.Irrelevant, s.AlreadyProcessed, s.ModelFailures, s.ParseFailures)
}
