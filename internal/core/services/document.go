package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/agrichat/agrichat/internal/chunker"
	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
	"github.com/agrichat/agrichat/internal/loaders"
	"github.com/agrichat/agrichat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DefaultMaxFileSize bounds uploaded files at 50 MB.
const DefaultMaxFileSize = 50 * 1024 * 1024

// DocumentService runs the ingestion pipeline: validate, load, chunk,
// embed and index. Ingestion failures are recorded on the document and
// require explicit re-submission; there is no automatic retry loop.
type DocumentService struct {
	store       driven.DocumentStore
	index       driven.VectorIndex
	registry    *loaders.Registry
	chunker     *chunker.Chunker
	maxFileSize int64
}

// NewDocumentService creates the ingestion service.
func NewDocumentService(
	store driven.DocumentStore,
	index driven.VectorIndex,
	registry *loaders.Registry,
	splitter *chunker.Chunker,
	maxFileSize int64,
) (*DocumentService, error) {
	if store == nil || index == nil || registry == nil || splitter == nil {
		return nil, fmt.Errorf("%w: document service requires store, index, loader registry and chunker", domain.ErrInvalidInput)
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &DocumentService{
		store:       store,
		index:       index,
		registry:    registry,
		chunker:     splitter,
		maxFileSize: maxFileSize,
	}, nil
}

// Register validates a file and records it as a pending document.
// Uploads with a content hash the owner already registered are a
// conflict, reported as domain.ErrDuplicateContent.
func (s *DocumentService) Register(ctx context.Context, owner, filePath string, metadata map[string]any) (*domain.Document, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: empty owner", domain.ErrInvalidInput)
	}
	if err := s.registry.Validate(filePath, s.maxFileSize); err != nil {
		return nil, err
	}

	hash, err := hashFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", filePath, err)
	}

	existing, err := s.store.FindByHash(ctx, owner, hash)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("dedupe lookup: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: matches document %s", domain.ErrDuplicateContent, existing.ID)
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}
	now := time.Now()
	doc := domain.Document{
		ID:          uuid.New().String(),
		Owner:       owner,
		FilePath:    filePath,
		ContentHash: hash,
		Status:      domain.StatusPending,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Registered document %s (%s) for %s", doc.ID, filepath.Base(filePath), owner)
	return &doc, nil
}

// Process loads, chunks and indexes a registered document, returning the
// chunk count. Chunk ids derive from (documentID, ordinal), so
// re-processing unchanged content overwrites the same records and the
// operation is idempotent.
func (s *DocumentService) Process(ctx context.Context, documentID string) (int, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	if err := s.store.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, 0, ""); err != nil {
		return 0, fmt.Errorf("mark processing: %w", err)
	}

	count, err := s.ingest(ctx, doc)
	if err != nil {
		if statusErr := s.store.UpdateStatus(ctx, doc.ID, domain.StatusFailed, 0, err.Error()); statusErr != nil {
			logger.Warn("Recording failure on document %s failed: %v", doc.ID, statusErr)
		}
		return 0, err
	}

	if err := s.store.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, count, ""); err != nil {
		return 0, fmt.Errorf("mark completed: %w", err)
	}

	logger.Info("Indexed document %s: %d chunks", doc.ID, count)
	return count, nil
}

func (s *DocumentService) ingest(ctx context.Context, doc *domain.Document) (int, error) {
	if err := s.registry.Validate(doc.FilePath, s.maxFileSize); err != nil {
		return 0, err
	}

	loader, err := s.registry.ForPath(doc.FilePath)
	if err != nil {
		return 0, err
	}
	segments, err := loader.Load(ctx, doc.FilePath)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}

	chunks, err := s.chunker.Split(doc.ID, segments)
	if err != nil {
		return 0, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: document has no extractable text", domain.ErrInvalidInput)
	}

	s.stampMetadata(doc, chunks)

	// Remove whatever an earlier run indexed before writing the new
	// chunk set, so a shrinking document leaves no stale tail records.
	if err := s.index.DeleteByMetadata(ctx, map[string]any{"document_id": doc.ID}); err != nil {
		return 0, fmt.Errorf("clear stale vectors: %w", err)
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	return len(chunks), nil
}

// stampMetadata copies document-level metadata onto every chunk and adds
// the fields retrieval filters on.
func (s *DocumentService) stampMetadata(doc *domain.Document, chunks []domain.Chunk) {
	for i := range chunks {
		for k, v := range doc.Metadata {
			chunks[i].Metadata[k] = v
		}
		chunks[i].Metadata["document_id"] = doc.ID
		chunks[i].Metadata["owner"] = doc.Owner
		if _, ok := chunks[i].Metadata["source"]; !ok {
			chunks[i].Metadata["source"] = filepath.Base(doc.FilePath)
		}
		chunks[i].Metadata["chunk_index"] = chunks[i].Ordinal
		chunks[i].Metadata["chunk_total"] = chunks[i].Total
	}
}

// Delete removes the document record together with every indexed chunk
// belonging to it. The vector deletion runs first so a failure never
// leaves orphaned vectors behind a missing document.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.index.DeleteByMetadata(ctx, map[string]any{"document_id": documentID}); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	logger.Info("Deleted document %s and its vectors", documentID)
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// List returns all documents for an owner.
func (s *DocumentService) List(ctx context.Context, owner string) ([]domain.Document, error) {
	return s.store.ListByOwner(ctx, owner)
}

// hashFile computes the SHA-256 of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
