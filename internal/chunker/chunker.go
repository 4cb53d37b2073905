// Package chunker splits document text into overlapping chunks sized
// for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// separators are tried coarsest-first: paragraph breaks, line breaks,
// sentence-ending punctuation for Chinese and Latin text, whitespace,
// then individual characters. The splitter always prefers the coarsest
// separator that keeps chunks within the size bound.
var separators = []string{"\n\n", "\n", "。", "！", "？", ".", "!", "?", " ", ""}

// Chunker splits text recursively with overlap between adjacent chunks.
// Splitting is deterministic: identical input with identical parameters
// yields identical chunk ids and boundaries.
type Chunker struct {
	splitter  textsplitter.RecursiveCharacter
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, c.overlap, c.chunkSize)
	}

	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
		textsplitter.WithSeparators(separators),
	)
	return c, nil
}

// Split chunks the segments of one document. Segments are joined with
// paragraph breaks before splitting so ordinals run across the whole
// document. Each chunk is stamped with its ordinal and the document's
// total chunk count, and its id is derived from (documentID, ordinal).
func (c *Chunker) Split(documentID string, segments []driven.Segment) ([]domain.Chunk, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if s := strings.TrimSpace(seg.Content); s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	parts, err := c.splitter.SplitText(strings.Join(texts, "\n\n"))
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ordinal := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, ordinal),
			DocumentID: documentID,
			Content:    part,
			Ordinal:    ordinal,
			Metadata:   make(map[string]any),
		})
	}
	for i := range chunks {
		chunks[i].Total = len(chunks)
	}

	return chunks, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }
