package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_DictionaryTerms(t *testing.T) {
	pre := NewPreprocessor()

	tokens := pre.Tokenize("農地貸款利率")

	assert.Contains(t, tokens, "農地")
	assert.Contains(t, tokens, "貸款")
	assert.Contains(t, tokens, "利率")
}

func TestTokenize_Deterministic(t *testing.T) {
	pre := NewPreprocessor()

	first := pre.Tokenize("想申請青年農民貸款，利率多少？")
	second := pre.Tokenize("想申請青年農民貸款，利率多少？")

	assert.Equal(t, first, second)
}

func TestTokenize_MixedLatinAndChinese(t *testing.T) {
	pre := NewPreprocessor()

	tokens := pre.Tokenize("ATM轉帳 貸款")

	assert.Contains(t, tokens, "atm")
	assert.Contains(t, tokens, "貸款")
}

func TestTokenize_CaseInsensitive(t *testing.T) {
	pre := NewPreprocessor()

	assert.Equal(t, pre.Tokenize("OTP CODE"), pre.Tokenize("otp code"))
}

func TestTokenize_BigramFallback(t *testing.T) {
	pre := NewPreprocessor()

	// A Han run with no dictionary hits still yields overlapping bigrams,
	// so query and document tokens can align.
	tokens := pre.Tokenize("鳳梨酥")

	assert.NotEmpty(t, tokens)
	assert.Contains(t, tokens, "鳳梨")
	assert.Contains(t, tokens, "梨酥")
}

func TestTokenize_DropsStopwordsAndNoise(t *testing.T) {
	pre := NewPreprocessor()

	tests := []struct {
		name  string
		input string
	}{
		{"punctuation only", "！？。，"},
		{"digits only", "123 456"},
		{"stopwords", "the of 的"},
		{"empty", ""},
		{"whitespace", "   \t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, pre.Tokenize(tt.input))
		})
	}
}

func TestTokenize_SingleRuneDropped(t *testing.T) {
	pre := NewPreprocessor()

	// A lone Han character cannot form a bigram and is dropped.
	assert.Empty(t, pre.Tokenize("米"))
}

func TestAddTerm_ExtendsSegmentation(t *testing.T) {
	pre := NewPreprocessor()

	before := pre.Tokenize("鳳梨酥禮盒")
	assert.NotContains(t, before, "鳳梨酥")

	pre.AddTerm("鳳梨酥")
	after := pre.Tokenize("鳳梨酥禮盒")

	assert.Contains(t, after, "鳳梨酥")
}

func TestAddTerm_Idempotent(t *testing.T) {
	pre := NewPreprocessor()

	pre.AddTerm("鳳梨酥")
	once := pre.Tokenize("鳳梨酥禮盒")
	pre.AddTerm("鳳梨酥")
	twice := pre.Tokenize("鳳梨酥禮盒")

	require.Equal(t, once, twice)
}

func TestTokenize_GreedyLongestMatch(t *testing.T) {
	pre := NewPreprocessor()
	pre.AddTerm("農保")
	pre.AddTerm("農保給付")

	tokens := pre.Tokenize("農保給付")

	// The longer dictionary term wins over its prefix.
	assert.Equal(t, []string{"農保給付"}, tokens)
}
