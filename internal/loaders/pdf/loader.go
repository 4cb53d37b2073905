// Package pdf extracts text from PDF files, one segment per page.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles PDF files using a pure Go text extractor.
type Loader struct{}

// New creates a PDF loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load extracts text page by page so page numbers survive into chunk
// metadata. Pages with no extractable text are skipped.
func (l *Loader) Load(_ context.Context, path string) ([]driven.Segment, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	var segments []driven.Segment
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d of %s: %w", pageNum, path, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, driven.Segment{
			Content:  text,
			Metadata: map[string]any{"file_type": "pdf", "page": pageNum},
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}
	return segments, nil
}
