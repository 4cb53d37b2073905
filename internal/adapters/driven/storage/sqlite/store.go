// Package sqlite provides SQLite-backed persistence for conversation
// history and document registrations.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/agrichat/agrichat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to the
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.agrichat/data/agrichat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".agrichat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "agrichat.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChatRepository returns a ChatRepository interface backed by this store.
func (s *Store) ChatRepository() driven.ChatRepository {
	return &chatRepository{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chat Repository ====================

// chatRepository implements driven.ChatRepository.
type chatRepository struct {
	store *Store
}

var _ driven.ChatRepository = (*chatRepository)(nil)

// SaveMessage appends a message to a conversation.
func (r *chatRepository) SaveMessage(ctx context.Context, msg domain.Message) error {
	if msg.ID == "" || msg.ConversationID == "" {
		return domain.ErrInvalidInput
	}

	sourcesJSON, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}
	intentJSON, err := json.Marshal(msg.Intent)
	if err != nil {
		return fmt.Errorf("marshalling intent: %w", err)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, sources, intent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ConversationID, msg.Role, msg.Content,
		string(sourcesJSON), string(intentJSON), msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

// GetRecentHistory returns up to limit most recent (role, content)
// pairs, oldest first.
func (r *chatRepository) GetRecentHistory(ctx context.Context, conversationID string, limit int) ([]driven.HistoryEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT role, content FROM (
			SELECT role, content, created_at FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []driven.HistoryEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e driven.HistoryEntry
		if err := rows.Scan(&e.Role, &e.Content); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// GetMessages returns messages for a conversation with pagination,
// oldest first.
func (r *chatRepository) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, sources, intent, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message //nolint:prealloc // size unknown from query
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

// ClearHistory deletes all messages in a conversation.
func (r *chatRepository) ClearHistory(ctx context.Context, conversationID string) error {
	_, err := r.store.db.ExecContext(ctx,
		"DELETE FROM messages WHERE conversation_id = ?", conversationID)
	if err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// scanMessage scans a message from *sql.Rows.
func scanMessage(rows *sql.Rows) (*domain.Message, error) {
	var msg domain.Message
	var sourcesJSON, intentJSON sql.NullString

	if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
		&sourcesJSON, &intentJSON, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	if sourcesJSON.Valid && sourcesJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
			return nil, fmt.Errorf("unmarshalling sources: %w", err)
		}
	}
	if intentJSON.Valid && intentJSON.String != jsonNull {
		var intent domain.Intent
		if err := json.Unmarshal([]byte(intentJSON.String), &intent); err != nil {
			return nil, fmt.Errorf("unmarshalling intent: %w", err)
		}
		msg.Intent = &intent
	}

	return &msg, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument creates a new document record.
func (s *documentStore) SaveDocument(ctx context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents
			(id, owner, file_path, content_hash, status, chunk_count, error_reason, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Owner, doc.FilePath, doc.ContentHash, string(doc.Status),
		doc.ChunkCount, doc.ErrorReason, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: owner already registered this content", domain.ErrDuplicateContent)
		}
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, file_path, content_hash, status, chunk_count, error_reason, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// FindByHash looks up an owner's document by content hash.
func (s *documentStore) FindByHash(ctx context.Context, owner, contentHash string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner, file_path, content_hash, status, chunk_count, error_reason, metadata, created_at, updated_at
		FROM documents WHERE owner = ? AND content_hash = ?
	`, owner, contentHash)

	return scanDocument(row)
}

// UpdateStatus records an ingestion state transition.
func (s *documentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount int, errorReason string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, chunk_count = ?, error_reason = ?, updated_at = ?
		WHERE id = ?
	`, string(status), chunkCount, errorReason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns all documents registered by an owner.
func (s *documentStore) ListByOwner(ctx context.Context, owner string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner, file_path, content_hash, status, chunk_count, error_reason, metadata, created_at, updated_at
		FROM documents WHERE owner = ?
		ORDER BY created_at ASC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string

	if err := row.Scan(&doc.ID, &doc.Owner, &doc.FilePath, &doc.ContentHash,
		&status, &doc.ChunkCount, &doc.ErrorReason, &metadataJSON,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var status, metadataJSON string

	if err := rows.Scan(&doc.ID, &doc.Owner, &doc.FilePath, &doc.ContentHash,
		&status, &doc.ChunkCount, &doc.ErrorReason, &metadataJSON,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if metadataJSON != "" && metadataJSON != jsonNull {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, nil
}
