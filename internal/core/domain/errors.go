package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateContent indicates an owner already has a document
	// with the same content hash.
	ErrDuplicateContent = errors.New("duplicate document content")

	// ErrUnsupportedFormat indicates no loader is registered for the
	// file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge indicates the file exceeds the ingestion size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmbeddingUnavailable indicates the embedding provider failed.
	// Callers decide whether to degrade (answer with empty context) or
	// fail the request.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrHistoryUnavailable indicates no conversation repository is
	// configured; history operations are disabled.
	ErrHistoryUnavailable = errors.New("conversation history unavailable")

	// ErrGenerationFailed indicates the language model failed to produce
	// an answer. Terminal for the query; never retried automatically.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrStreamCancelled indicates the caller cancelled mid-stream.
	ErrStreamCancelled = errors.New("stream cancelled")
)
