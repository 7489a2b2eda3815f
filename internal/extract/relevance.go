package extract

import (
	"strings"

	"github.com/ppiankov/startupscout/internal/model"
)

// RelevanceFilter decides whether a comment is worth a model call
type RelevanceFilter struct {
	keywords []string
}

// NewRelevanceFilter creates a filter over the given vocabulary. An empty
// vocabulary falls back to model.DefaultKeywords.
func NewRelevanceFilter(keywords ...string) *RelevanceFilter {
	if len(keywords) == 0 {
		keywords = model.DefaultKeywords
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	return &RelevanceFilter{keywords: lowered}
}

// Match returns the first vocabulary term found in text as a substring,
// case-insensitively. Matching is intentionally loose: "app" matches "happy".
func (f *RelevanceFilter) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, keyword := range f.keywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// IsRelevant reports whether text mentions any vocabulary term
func (f *RelevanceFilter) IsRelevant(text string) bool {
	_, ok := f.Match(text)
	return ok
}

// Keywords returns the active vocabulary
func (f *RelevanceFilter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}
