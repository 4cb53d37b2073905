package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document // keyed by document ID
}

var _ driven.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument creates a new document record.
func (s *DocumentStore) SaveDocument(_ context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.documents {
		if existing.Owner == doc.Owner && existing.ContentHash == doc.ContentHash {
			return domain.ErrDuplicateContent
		}
	}
	s.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// FindByHash looks up an owner's document by content hash.
func (s *DocumentStore) FindByHash(_ context.Context, owner, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.documents {
		if doc.Owner == owner && doc.ContentHash == contentHash {
			found := doc
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// UpdateStatus records an ingestion state transition.
func (s *DocumentStore) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, chunkCount int, errorReason string) error {
	if !status.IsValid() {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.ChunkCount = chunkCount
	doc.ErrorReason = errorReason
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return nil
}

// ListByOwner returns all documents registered by an owner.
func (s *DocumentStore) ListByOwner(_ context.Context, owner string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document //nolint:prealloc // filtered subset
	for _, doc := range s.documents {
		if doc.Owner == owner {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}
