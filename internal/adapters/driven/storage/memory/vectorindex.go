package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// VectorIndex is an in-memory implementation of driven.VectorIndex
// using brute-force cosine search. Suitable for tests and small
// single-process deployments.
type VectorIndex struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	records  map[string]vectorRecord // keyed by chunk ID
}

type vectorRecord struct {
	content   string
	metadata  map[string]any
	embedding []float32
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex(embedder driven.EmbeddingService) (*VectorIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedding service is required")
	}
	return &VectorIndex{
		embedder: embedder,
		records:  make(map[string]vectorRecord),
	}, nil
}

// Upsert embeds and stores chunks, replacing records that share an id.
func (idx *VectorIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	flattened := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		metadata, err := domain.FlattenMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("memory: chunk %s: %w", c.ChunkID(), err)
		}
		flattened[i] = metadata
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("memory: expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, c := range chunks {
		idx.records[c.ChunkID()] = vectorRecord{
			content:   c.Content,
			metadata:  flattened[i],
			embedding: vectors[i],
		}
	}
	return nil
}

// Search embeds the query and returns the topN nearest chunks by
// cosine similarity, filtered by metadata containment.
func (idx *VectorIndex) Search(ctx context.Context, query string, topN int, filter map[string]any) ([]driven.VectorHit, error) {
	if topN <= 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []driven.VectorHit //nolint:prealloc // filtered subset
	for id, rec := range idx.records {
		if !matchesFilter(rec.metadata, filter) {
			continue
		}
		sim := cosineSimilarity(queryVec, rec.embedding)
		if sim < 0 {
			sim = 0
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Content:    rec.content,
			Metadata:   rec.metadata,
			Similarity: sim,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, nil
}

// DeleteByMetadata removes every chunk whose metadata contains the
// given pairs.
func (idx *VectorIndex) DeleteByMetadata(_ context.Context, filter map[string]any) error {
	if len(filter) == 0 {
		return fmt.Errorf("%w: empty metadata filter", domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, rec := range idx.records {
		if matchesFilter(rec.metadata, filter) {
			delete(idx.records, id)
		}
	}
	return nil
}

// Count returns the number of indexed chunks.
func (idx *VectorIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records), nil
}

// Close releases resources.
func (idx *VectorIndex) Close() error {
	return nil
}

// matchesFilter reports whether metadata contains every filter pair.
func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when either vector has zero magnitude or lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
