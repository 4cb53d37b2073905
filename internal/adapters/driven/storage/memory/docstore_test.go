package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichat/agrichat/internal/core/domain"
)

func testDocument(id, owner, hash string) domain.Document {
	now := time.Now()
	return domain.Document{
		ID:          id,
		Owner:       owner,
		FilePath:    "/data/" + id + ".txt",
		ContentHash: hash,
		Status:      domain.StatusPending,
		Metadata:    map[string]any{"department": "credit"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	err := store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1"))
	require.NoError(t, err)

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", saved.ID)
	assert.Equal(t, "admin", saved.Owner)
	assert.Equal(t, domain.StatusPending, saved.Status)
	assert.Equal(t, "credit", saved.Metadata["department"])
}

func TestDocumentStore_SaveDocument_EmptyID(t *testing.T) {
	store := NewDocumentStore()

	err := store.SaveDocument(context.Background(), domain.Document{Owner: "admin"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_SaveDocument_DuplicateHashSameOwner(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))

	err := store.SaveDocument(ctx, testDocument("doc-2", "admin", "hash-1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateContent)

	// The same content under a different owner is not a duplicate.
	assert.NoError(t, store.SaveDocument(ctx, testDocument("doc-3", "staff", "hash-1")))
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_FindByHash(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))

	found, err := store.FindByHash(ctx, "admin", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", found.ID)

	_, err = store.FindByHash(ctx, "staff", "hash-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.FindByHash(ctx, "admin", "hash-other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_UpdateStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))

	err := store.UpdateStatus(ctx, "doc-1", domain.StatusCompleted, 7, "")
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, 7, doc.ChunkCount)
	assert.Empty(t, doc.ErrorReason)
}

func TestDocumentStore_UpdateStatus_Failure(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))
	require.NoError(t, store.UpdateStatus(ctx, "doc-1", domain.StatusFailed, 0, "load document: no such file"))

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, "load document: no such file", doc.ErrorReason)
}

func TestDocumentStore_UpdateStatus_Invalid(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))

	assert.ErrorIs(t, store.UpdateStatus(ctx, "doc-1", "exploded", 0, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.UpdateStatus(ctx, "missing", domain.StatusCompleted, 0, ""), domain.ErrNotFound)
}

func TestDocumentStore_ListByOwner(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	first := testDocument("doc-1", "admin", "hash-1")
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.SaveDocument(ctx, first))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-2", "admin", "hash-2")))
	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-3", "staff", "hash-3")))

	docs, err := store.ListByOwner(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Oldest first.
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-2", docs[1].ID)

	empty, err := store.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDocument("doc-1", "admin", "hash-1")))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing document is a no-op.
	assert.NoError(t, store.DeleteDocument(ctx, "doc-1"))
}
