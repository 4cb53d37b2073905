// Package search implements the lexical half of retrieval: language-aware
// tokenization, BM25-style scoring, and the fusion of lexical and vector
// scores into one ranking.
package search

import (
	"strings"
	"unicode"
)

// Preprocessor segments mixed Chinese/Latin text into scoring tokens.
//
// Chinese runs are segmented by greedy longest-match against a domain
// dictionary, falling back to overlapping bigrams where no term matches.
// Both queries and documents go through the same segmentation, so
// fallback bigrams still align between the two sides. Latin and digit
// runs split on non-alphanumeric boundaries.
type Preprocessor struct {
	dict       map[string]struct{}
	maxTermLen int
}

// NewPreprocessor creates a preprocessor seeded with DomainVocabulary.
func NewPreprocessor() *Preprocessor {
	p := &Preprocessor{dict: make(map[string]struct{})}
	for _, term := range DomainVocabulary {
		p.AddTerm(term)
	}
	return p
}

// AddTerm seeds the segmentation dictionary with a domain term.
// Adding the same term twice has no additional effect.
func (p *Preprocessor) AddTerm(term string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}
	p.dict[term] = struct{}{}
	if n := len([]rune(term)); n > p.maxTermLen {
		p.maxTermLen = n
	}
}

// Tokenize segments text into an ordered sequence of tokens.
// Deterministic and case-insensitive; never fails. Unsegmentable input
// yields an empty sequence.
func (p *Preprocessor) Tokenize(text string) []string {
	runes := []rune(strings.ToLower(text))
	var tokens []string

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case isHan(r):
			j := i
			for j < len(runes) && isHan(runes[j]) {
				j++
			}
			tokens = append(tokens, p.segmentHan(runes[i:j])...)
			i = j
		case isLatinOrDigit(r):
			j := i
			for j < len(runes) && isLatinOrDigit(runes[j]) {
				j++
			}
			tokens = appendToken(tokens, string(runes[i:j]))
			i = j
		default:
			i++
		}
	}

	return tokens
}

// segmentHan segments a run of Han characters by greedy longest match
// against the dictionary, emitting overlapping bigrams where no term
// matches.
func (p *Preprocessor) segmentHan(run []rune) []string {
	var tokens []string

	for i := 0; i < len(run); {
		matched := false
		maxLen := p.maxTermLen
		if rest := len(run) - i; maxLen > rest {
			maxLen = rest
		}
		for n := maxLen; n >= 2; n-- {
			if _, ok := p.dict[string(run[i:i+n])]; ok {
				tokens = appendToken(tokens, string(run[i:i+n]))
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if i+1 < len(run) {
			tokens = appendToken(tokens, string(run[i:i+2]))
		}
		i++
	}

	return tokens
}

// appendToken applies the token filters: stopwords, single-rune tokens,
// and tokens composed only of punctuation or digits are dropped.
func appendToken(tokens []string, tok string) []string {
	if _, stop := stopwords[tok]; stop {
		return tokens
	}
	if len([]rune(tok)) <= 1 {
		return tokens
	}
	if isPunctOrDigitOnly(tok) {
		return tokens
	}
	return append(tokens, tok)
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isLatinOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isPunctOrDigitOnly(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
