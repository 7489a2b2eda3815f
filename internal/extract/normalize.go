package extract

import (
	"regexp"
	"strings"
)

// markdownLink matches [label](target) with a non-empty label
var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

// Normalize prepares comment text for the model: markdown links are reduced
// to their label, every whitespace run (newlines included) becomes a single
// space, and the result is trimmed.
func Normalize(text string) string {
	text = markdownLink.ReplaceAllString(text, "$1")
	return strings.Join(strings.Fields(text), " ")
}
