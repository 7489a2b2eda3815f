package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/startupscout/internal/model"
)

// File reads comments from a JSON or YAML fixture: a list of objects with
// id, body, author, origin and created_utc.
type File struct{}

// NewFile creates a file source
func NewFile() *File {
	return &File{}
}

// Name returns the source name
func (f *File) Name() string {
	return "file"
}

// Comments loads ref as a fixture file. The format follows the extension;
// .yaml and .yml are YAML, anything else is JSON.
func (f *File) Comments(ctx context.Context, ref string, limit int) ([]model.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}

	var comments []model.Comment
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &comments)
	default:
		err = json.Unmarshal(data, &comments)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}

	return capComments(comments, limit), nil
}
