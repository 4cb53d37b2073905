package domain

import "fmt"

// Chunk is a bounded segment of a source document, the unit of indexing
// and retrieval. Chunks are immutable once created and are deleted en
// masse when their document is deleted.
type Chunk struct {
	// ID is derived from (DocumentID, Ordinal) so re-processing an
	// unchanged document overwrites the same records.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Ordinal is the zero-based position within the document.
	Ordinal int

	// Total is the chunk count of the whole document, stamped at
	// split time so document order can be reconstructed.
	Total int

	// Metadata contains flat key-value pairs (source, department,
	// job_type, year, document_type).
	Metadata map[string]any
}

// ChunkID derives the stable identifier for a chunk.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_%d", documentID, ordinal)
}

// ChunkID returns the chunk's stable identifier, deriving it from the
// document and ordinal when ID was never set.
func (c Chunk) ChunkID() string {
	if c.ID != "" {
		return c.ID
	}
	return ChunkID(c.DocumentID, c.Ordinal)
}
