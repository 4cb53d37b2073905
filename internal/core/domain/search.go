package domain

// ContextItem is one retrieved chunk with its ranking scores.
// It exists only for the duration of a single query.
type ContextItem struct {
	// Content is the chunk text.
	Content string

	// Metadata contains the chunk's flat metadata fields.
	Metadata map[string]any

	// LexicalScore is the normalised BM25-style score in [0,1].
	LexicalScore float64

	// VectorScore is the cosine similarity in [0,1], higher is better.
	VectorScore float64

	// FusedScore is the weighted combination used for ranking.
	FusedScore float64
}

// Source is a citation attached to a generated answer.
type Source struct {
	// Source is the originating document name.
	Source string `json:"source"`

	// Department is the business unit that owns the document.
	Department string `json:"department"`

	// Content is a preview of the cited chunk.
	Content string `json:"content"`
}

// SourcePreviewLen is the maximum preview length for a citation.
const SourcePreviewLen = 200
