package driving

import (
	"context"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// DocumentService manages document registration and ingestion.
type DocumentService interface {
	// Register validates an uploaded file, deduplicates it by content
	// hash per owner, and records it as pending.
	// Returns domain.ErrDuplicateContent when the owner already has a
	// document with the same hash.
	Register(ctx context.Context, owner, filePath string, metadata map[string]any) (*domain.Document, error)

	// Process loads, chunks and indexes a registered document and
	// returns the chunk count. Idempotent for unchanged content: chunk
	// ids are stable, so re-processing overwrites the same records.
	Process(ctx context.Context, documentID string) (int, error)

	// Delete removes a document together with every indexed chunk that
	// belongs to it (no orphaned vectors).
	Delete(ctx context.Context, documentID string) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all documents for an owner.
	List(ctx context.Context, owner string) ([]domain.Document, error)
}
