package driven

import "context"

// Segment is one raw text segment extracted from a file, in document
// order (e.g. one PDF page or one whole text file).
type Segment struct {
	// Content is the extracted text.
	Content string

	// Metadata contains loader-specific fields (page number, etc).
	Metadata map[string]any
}

// Loader extracts raw text from one family of file formats.
//
// Loaders fail cleanly with a diagnosable reason; unsupported content
// inside a recognised extension is an error, never a crash.
type Loader interface {
	// Extensions returns the lowercase file extensions this loader
	// handles, including the leading dot.
	Extensions() []string

	// Load reads the file and returns its text segments in order.
	Load(ctx context.Context, path string) ([]Segment, error)
}
