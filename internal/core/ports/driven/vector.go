package driven

import (
	"context"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// VectorIndex wraps an embedding model and a persistent vector store.
//
// Every persisted chunk has exactly one record in the index with the
// same id; deletion paths must remove both together. Every mutation is
// committed to durable storage before returning.
//
// Similarity convention: scores are cosine similarity in [0,1], higher
// is better. Backends that report distances convert at this boundary.
type VectorIndex interface {
	// Upsert embeds and stores the given chunks. Metadata values are
	// flattened to primitives (strings, numbers, booleans) or
	// JSON-encoded strings; nested structures cannot be filtered on by
	// the underlying index.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search embeds the query text and returns the topN most similar
	// records. The filter is an exact-match conjunction over metadata
	// fields; nil means no filtering.
	Search(ctx context.Context, query string, topN int, filter map[string]any) ([]VectorHit, error)

	// DeleteByMetadata removes every record matching the filter.
	// Used for cascading document deletion.
	DeleteByMetadata(ctx context.Context, filter map[string]any) error

	// Count returns the total number of indexed vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched record's id.
	ChunkID string

	// Content is the chunk text.
	Content string

	// Metadata contains the stored flat metadata fields.
	Metadata map[string]any

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
