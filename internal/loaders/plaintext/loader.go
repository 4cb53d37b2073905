// Package plaintext loads UTF-8 text files as a single segment.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text files.
type Loader struct{}

// New creates a plain text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt"}
}

// Load reads the whole file as one segment.
func (l *Loader) Load(_ context.Context, path string) ([]driven.Segment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []driven.Segment{{
		Content:  sanitizeUTF8(string(content)),
		Metadata: map[string]any{"file_type": "txt"},
	}}, nil
}

// sanitizeUTF8 drops invalid byte sequences so downstream JSON encoding
// never fails on uploaded files with broken encodings.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
