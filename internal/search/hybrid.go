package search

import (
	"fmt"
	"sort"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// Default fusion weights.
const (
	DefaultLexicalWeight = 0.5
	DefaultVectorWeight  = 0.5
)

// Candidate is one retrieval candidate entering fusion. Index i of the
// candidate slice and of the vector score slice passed to Search refer
// to the same document; the caller guarantees alignment.
type Candidate struct {
	Content  string
	Metadata map[string]any
}

// Engine fuses lexical and vector-similarity scores into one ranking.
type Engine struct {
	pre     *Preprocessor
	scorer  *Scorer
	wLex    float64
	wVector float64
}

// NewEngine creates a hybrid search engine. The weights must sum to a
// positive value; both score inputs are assumed independently normalised
// to [0,1] by their producing components.
func NewEngine(lexicalWeight, vectorWeight float64) (*Engine, error) {
	if lexicalWeight < 0 || vectorWeight < 0 || lexicalWeight+vectorWeight <= 0 {
		return nil, fmt.Errorf("%w: fusion weights must be non-negative and sum to a positive value", domain.ErrInvalidInput)
	}
	pre := NewPreprocessor()
	return &Engine{
		pre:     pre,
		scorer:  NewScorer(pre),
		wLex:    lexicalWeight,
		wVector: vectorWeight,
	}, nil
}

// Preprocessor exposes the engine's tokenizer for vocabulary seeding.
func (e *Engine) Preprocessor() *Preprocessor {
	return e.pre
}

// Search scores the candidates against the query and returns the topK
// by fused score. Documents with equal fused score retain their relative
// input order. If fewer than topK candidates exist, all are returned.
func (e *Engine) Search(query string, candidates []Candidate, vectorScores []float64, topK int) ([]domain.ContextItem, error) {
	if len(candidates) != len(vectorScores) {
		return nil, fmt.Errorf("%w: %d candidates but %d vector scores", domain.ErrInvalidInput, len(candidates), len(vectorScores))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	docs := make([]string, len(candidates))
	for i := range candidates {
		docs[i] = candidates[i].Content
	}
	lexScores := e.scorer.Score(query, docs)

	items := make([]domain.ContextItem, len(candidates))
	for i := range candidates {
		items[i] = domain.ContextItem{
			Content:      candidates[i].Content,
			Metadata:     candidates[i].Metadata,
			LexicalScore: lexScores[i],
			VectorScore:  vectorScores[i],
			FusedScore:   e.wLex*lexScores[i] + e.wVector*vectorScores[i],
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FusedScore > items[j].FusedScore
	})

	if topK < len(items) {
		items = items[:topK]
	}
	return items, nil
}
