// Package csv loads CSV files, rendering each row against the header so
// cell values stay searchable by column name.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles CSV files.
type Loader struct{}

// New creates a CSV loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".csv"}
}

// Load renders each data row as "header: value" lines in one segment
// per row, with the first row treated as the header.
func (l *Loader) Load(_ context.Context, path string) ([]driven.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := stdcsv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv file %s", path)
	}

	header := records[0]
	segments := make([]driven.Segment, 0, len(records)-1)
	for rowNum, row := range records[1:] {
		var b strings.Builder
		for i, cell := range row {
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			fmt.Fprintf(&b, "%s: %s\n", name, strings.TrimSpace(cell))
		}
		segments = append(segments, driven.Segment{
			Content:  b.String(),
			Metadata: map[string]any{"file_type": "csv", "row": rowNum + 1},
		})
	}

	return segments, nil
}
