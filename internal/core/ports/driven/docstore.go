package driven

import (
	"context"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// DocumentStore persists document registrations and their ingestion state.
type DocumentStore interface {
	// SaveDocument creates a new document record.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByHash looks up an owner's document by content hash.
	// Returns domain.ErrNotFound if no document matches.
	FindByHash(ctx context.Context, owner, contentHash string) (*domain.Document, error)

	// UpdateStatus records an ingestion state transition. chunkCount is
	// stored on completion; errorReason on failure.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount int, errorReason string) error

	// ListByOwner returns all documents registered by an owner.
	ListByOwner(ctx context.Context, owner string) ([]domain.Document, error)

	// DeleteDocument removes a document record. Vector cleanup is the
	// caller's responsibility.
	DeleteDocument(ctx context.Context, id string) error
}
