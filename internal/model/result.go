package model

// SkipReason explains why a comment never reached the model
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipEmpty      SkipReason = "empty"
	SkipDeleted    SkipReason = "deleted"
	SkipTooShort   SkipReason = "too_short"
	SkipIrrelevant SkipReason = "irrelevant"
	SkipProcessed  SkipReason = "already_processed"
)

// CommentResult is the outcome of running one comment through the pipeline
type CommentResult struct {
	CommentID string
	Skip      SkipReason
	Processed bool  // The model was invoked
	Err       error // Transport or malformed-output failure, nil otherwise

	Extracted       int // Records the parser produced
	Discarded       int // Records the gate dropped
	Stored          int // New rows written
	Duplicates      int // Rows already present under the same key
	StorageFailures int
}
