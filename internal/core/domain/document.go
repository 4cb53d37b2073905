package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Ingestion states.
const (
	// StatusPending means the document is registered but not yet processed.
	StatusPending DocumentStatus = "pending"

	// StatusProcessing means chunking and indexing is in progress.
	StatusProcessing DocumentStatus = "processing"

	// StatusCompleted means all chunks are indexed.
	StatusCompleted DocumentStatus = "completed"

	// StatusFailed means ingestion failed; ErrorReason holds the cause.
	// Failed documents are retried by re-submitting, never automatically.
	StatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transition is expected
// without an explicit re-submission.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an uploaded file registered for ingestion.
// The raw file lives on disk at FilePath; the indexed representation
// lives in the vector index as chunks keyed by this document's ID.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Owner is the authenticated user that uploaded the document.
	Owner string

	// FilePath is the location of the raw uploaded file.
	FilePath string

	// ContentHash is the SHA-256 of the file content, used for
	// per-owner deduplication. Two uploads with the same hash are
	// a conflict, not a silent overwrite.
	ContentHash string

	// Status is the current ingestion state.
	Status DocumentStatus

	// ChunkCount is the number of chunks produced by the last
	// successful ingestion run.
	ChunkCount int

	// ErrorReason holds the failure cause when Status is failed.
	ErrorReason string

	// Metadata contains document-level fields (department, job_type,
	// year, document_type) copied onto every chunk at ingestion.
	Metadata map[string]any

	// CreatedAt is when the document was registered.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}
