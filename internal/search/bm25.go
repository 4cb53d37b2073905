package search

// Scorer computes BM25-style lexical relevance scores.
//
// Per document, each query token contributes tf/(tf+1): a saturating
// frequency term with diminishing returns per repeated occurrence, so
// keyword stuffing cannot dominate the ranking.
type Scorer struct {
	pre *Preprocessor
}

// NewScorer creates a scorer sharing the given preprocessor.
func NewScorer(pre *Preprocessor) *Scorer {
	return &Scorer{pre: pre}
}

// Score returns one score per document, parallel to docs, normalised to
// [0,1] by the batch maximum. A document containing zero query tokens
// scores 0; an all-zero batch stays zero.
func (s *Scorer) Score(query string, docs []string) []float64 {
	queryTokens := s.pre.Tokenize(query)
	scores := make([]float64, len(docs))

	for i, doc := range docs {
		docTokens := s.pre.Tokenize(doc)
		freq := make(map[string]int, len(docTokens))
		for _, t := range docTokens {
			freq[t]++
		}

		var score float64
		for _, qt := range queryTokens {
			if tf := freq[qt]; tf > 0 {
				score += float64(tf) / (float64(tf) + 1.0)
			}
		}
		scores[i] = score
	}

	var max float64
	for _, sc := range scores {
		if sc > max {
			max = sc
		}
	}
	if max > 0 {
		for i := range scores {
			scores[i] /= max
		}
	}

	return scores
}
