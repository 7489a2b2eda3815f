package model

import "strings"

// Deletion sentinels the comment source leaves in place of removed text
const (
	BodyDeleted = "[deleted]"
	BodyRemoved = "[removed]"
)

// Comment is a single piece of user-generated text pulled from a discussion thread
type Comment struct {
	ID         string  `json:"id" yaml:"id"`                             // Unique within its thread
	Body       string  `json:"body" yaml:"body"`                         // May be empty or a deletion sentinel
	Author     string  `json:"author,omitempty" yaml:"author,omitempty"` // Informational only
	Origin     string  `json:"origin" yaml:"origin"`                     // Community label, e.g. the subreddit
	CreatedUTC float64 `json:"created_utc" yaml:"created_utc"`           // Seconds since the epoch
}

// IsDeleted reports whether the body is one of the deletion sentinels
func (c Comment) IsDeleted() bool {
	body := strings.TrimSpace(c.Body)
	return body == BodyDeleted || body == BodyRemoved
}
