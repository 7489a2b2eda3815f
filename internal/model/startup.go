package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// JSON keys the model is asked to fill. Prompt construction and response
// parsing both read them from here.
const (
	FieldStartupName = "startup_name"
	FieldLocation    = "location"
	FieldCompanyURL  = "company_url"
	FieldDescription = "description"
)

// MaxCommentText caps the source text stored next to each startup, in runes
const MaxCommentText = 800

// ExtractionRecord is one candidate startup as returned by the model
type ExtractionRecord struct {
	StartupName string `json:"startup_name" yaml:"startup_name"`
	Location    string `json:"location" yaml:"location"`
	CompanyURL  string `json:"company_url" yaml:"company_url"`
	Description string `json:"description" yaml:"description"`
}

// IsEmpty reports whether every field is blank after trimming whitespace
func (r ExtractionRecord) IsEmpty() bool {
	return strings.TrimSpace(r.StartupName) == "" &&
		strings.TrimSpace(r.Location) == "" &&
		strings.TrimSpace(r.CompanyURL) == "" &&
		strings.TrimSpace(r.Description) == ""
}

// StoredStartup is a persisted extraction record plus its provenance
type StoredStartup struct {
	ID          int64   `db:"id" json:"id" yaml:"id"`
	StartupName string  `db:"startup_name" json:"startup_name" yaml:"startup_name"`
	Location    string  `db:"location" json:"location" yaml:"location"`
	CompanyURL  string  `db:"company_url" json:"company_url" yaml:"company_url"`
	Description string  `db:"description" json:"description" yaml:"description"`
	CommentText string  `db:"comment_text" json:"comment_text" yaml:"comment_text"`
	CommentID   string  `db:"comment_id" json:"comment_id" yaml:"comment_id"` // Composite key, see CompositeKey
	Subreddit   string  `db:"subreddit" json:"subreddit" yaml:"subreddit"`
	CreatedUTC  float64 `db:"created_utc" json:"created_utc" yaml:"created_utc"`
}

// CompositeKey builds the dedup key for the seq-th kept record of a comment
func CompositeKey(commentID string, seq int) string {
	return fmt.Sprintf("%s_%d", commentID, seq)
}

// NewStoredStartup attaches comment provenance to an extraction record
func NewStoredStartup(rec ExtractionRecord, c Comment, seq int) StoredStartup {
	return StoredStartup{
		StartupName: rec.StartupName,
		Location:    rec.Location,
		CompanyURL:  rec.CompanyURL,
		Description: rec.Description,
		CommentText: TruncateRunes(c.Body, MaxCommentText),
		CommentID:   CompositeKey(c.ID, seq),
		Subreddit:   c.Origin,
		CreatedUTC:  c.CreatedUTC,
	}
}

// TruncateRunes returns at most n runes of s without splitting a character
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
