// Package markdown loads Markdown files, stripping formatting down to
// plain text suitable for chunking and scoring.
package markdown

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown files.
type Loader struct{}

// New creates a Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads the file and strips markdown syntax.
func (l *Loader) Load(_ context.Context, path string) ([]driven.Segment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []driven.Segment{{
		Content:  stripMarkdown(string(content)),
		Metadata: map[string]any{"file_type": "md"},
	}}, nil
}

var (
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	inlineRe    = regexp.MustCompile("`([^`]*)`")
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	linkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	imageRe     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	emphasisRe  = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
)

// stripMarkdown reduces markdown formatting to plain text. It keeps the
// text of links and emphasis, drops images and code fences.
func stripMarkdown(src string) string {
	out := codeFenceRe.ReplaceAllString(src, "")
	out = imageRe.ReplaceAllString(out, "")
	out = linkRe.ReplaceAllString(out, "$1")
	out = inlineRe.ReplaceAllString(out, "$1")
	out = headingRe.ReplaceAllString(out, "")
	out = emphasisRe.ReplaceAllString(out, "$2")
	return strings.TrimSpace(out)
}
