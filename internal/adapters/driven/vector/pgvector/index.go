// Package pgvector provides a vector index adapter backed by PostgreSQL
// with the pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTable          = "chunks"
	DefaultConnectTimeout = 10 * time.Second
	upsertBatchSize       = 64
)

// Config holds configuration for the pgvector index.
type Config struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string

	// Table is the chunk table name (default: chunks).
	Table string

	// Lists is the ivfflat index list count; zero keeps the default
	// set by EnsureSchema.
	Lists int
}

// Index stores and searches chunk embeddings in PostgreSQL. Distances
// use the cosine operator; results are reported as similarity in
// [0, 1], higher is closer.
type Index struct {
	pool     *pgxpool.Pool
	embedder driven.EmbeddingService
	table    string
	lists    int
}

// NewIndex connects to PostgreSQL and prepares the chunk table. The
// embedder supplies vectors for both indexed chunks and queries, so a
// single model governs the whole index.
func NewIndex(ctx context.Context, cfg Config, embedder driven.EmbeddingService) (*Index, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector: DSN is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("pgvector: embedding service is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Lists <= 0 {
		cfg.Lists = 100
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: parse DSN: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = DefaultConnectTimeout
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}

	idx := &Index{
		pool:     pool,
		embedder: embedder,
		table:    cfg.Table,
		lists:    cfg.Lists,
	}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// ensureSchema creates the extension, table and index if missing. The
// vector column width is pinned to the embedder's dimensionality, so
// switching embedding models requires a fresh table.
func (idx *Index) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			content   TEXT NOT NULL,
			metadata  JSONB NOT NULL DEFAULT '{}',
			embedding VECTOR(%d) NOT NULL
		)`, idx.table, idx.embedder.Dimensions()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d)`,
			idx.table, idx.table, idx.lists),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_metadata_idx
			ON %s USING gin (metadata jsonb_path_ops)`, idx.table, idx.table),
	}
	for _, stmt := range stmts {
		if _, err := idx.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert embeds and writes chunks, replacing rows that share an id.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := idx.upsertBatch(ctx, chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) upsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("pgvector: expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	batch := &pgx.Batch{}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding`, idx.table)
	for i, c := range chunks {
		flat, err := domain.FlattenMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("pgvector: chunk %s: %w", c.ChunkID(), err)
		}
		metadata, err := json.Marshal(flat)
		if err != nil {
			return fmt.Errorf("pgvector: marshal metadata for %s: %w", c.ChunkID(), err)
		}
		batch.Queue(stmt, c.ChunkID(), c.Content, metadata, pgvector.NewVector(vectors[i]))
	}

	results := idx.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%w: upsert: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}

// Search embeds the query and returns the topN nearest chunks. A
// non-empty filter restricts results to rows whose metadata contains
// every filter pair.
func (idx *Index) Search(ctx context.Context, query string, topN int, filter map[string]any) ([]driven.VectorHit, error) {
	if topN <= 0 {
		return nil, nil
	}

	vec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	// Cosine distance from <=> lands in [0, 2]; 1 - distance maps
	// identical vectors to 1 and opposite ones to -1, clamped below.
	stmt := fmt.Sprintf(`SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s`, idx.table)
	args := []any{pgvector.NewVector(vec)}
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("pgvector: marshal filter: %w", err)
		}
		stmt += ` WHERE metadata @> $2`
		args = append(args, filterJSON)
	}
	stmt += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topN)

	rows, err := idx.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			hit          driven.VectorHit
			metadataJSON []byte
		)
		if err := rows.Scan(&hit.ChunkID, &hit.Content, &metadataJSON, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("pgvector: scan row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &hit.Metadata); err != nil {
				return nil, fmt.Errorf("pgvector: decode metadata: %w", err)
			}
		}
		if hit.Similarity < 0 {
			hit.Similarity = 0
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return hits, nil
}

// DeleteByMetadata removes every chunk whose metadata contains the
// given pairs. An empty filter is rejected rather than truncating the
// table.
func (idx *Index) DeleteByMetadata(ctx context.Context, filter map[string]any) error {
	if len(filter) == 0 {
		return fmt.Errorf("%w: empty metadata filter", domain.ErrInvalidInput)
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("pgvector: marshal filter: %w", err)
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE metadata @> $1`, idx.table)
	if _, err := idx.pool.Exec(ctx, stmt, filterJSON); err != nil {
		return fmt.Errorf("%w: delete: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var count int
	stmt := fmt.Sprintf(`SELECT count(*) FROM %s`, idx.table)
	if err := idx.pool.QueryRow(ctx, stmt).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return count, nil
}

// Close releases the connection pool.
func (idx *Index) Close() error {
	idx.pool.Close()
	return nil
}
