package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Bounds(t *testing.T) {
	scorer := NewScorer(NewPreprocessor())

	docs := []string{
		"農會提供青年農民貸款，利率優惠",
		"存款繼承需要戶籍謄本與印鑑證明",
		"今天天氣晴朗",
	}
	scores := scorer.Score("貸款利率", docs)

	require.Len(t, scores, len(docs))
	for i, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, "doc %d", i)
		assert.LessOrEqual(t, s, 1.0, "doc %d", i)
	}
}

func TestScore_ZeroOverlap(t *testing.T) {
	scorer := NewScorer(NewPreprocessor())

	scores := scorer.Score("貸款利率", []string{"今天天氣晴朗", "股票大漲"})

	assert.Equal(t, []float64{0, 0}, scores)
}

func TestScore_BatchMaxNormalisation(t *testing.T) {
	scorer := NewScorer(NewPreprocessor())

	docs := []string{
		"貸款利率貸款利率貸款",
		"本會受理貸款申請",
		"無關內容",
	}
	scores := scorer.Score("貸款利率", docs)

	require.Len(t, scores, 3)
	assert.Equal(t, 1.0, scores[0], "best match is scaled to exactly 1")
	assert.Greater(t, scores[1], 0.0)
	assert.Less(t, scores[1], 1.0)
	assert.Zero(t, scores[2])
}

func TestScore_TermFrequencySaturates(t *testing.T) {
	pre := NewPreprocessor()
	scorer := NewScorer(pre)

	// Two query terms with one occurrence each beat one term repeated
	// many times: tf/(tf+1) caps each term's contribution below 1.
	docs := []string{
		"貸款貸款貸款貸款貸款貸款貸款貸款",
		"貸款利率",
	}
	scores := scorer.Score("貸款 利率", docs)

	require.Len(t, scores, 2)
	assert.Greater(t, scores[1], scores[0])
}

func TestScore_MoreMatchesScoreHigher(t *testing.T) {
	scorer := NewScorer(NewPreprocessor())

	docs := []string{
		"申請補助的流程與資格",
		"申請書填寫說明",
		"天氣預報",
	}
	scores := scorer.Score("申請補助資格", docs)

	require.Len(t, scores, 3)
	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[1], scores[2])
}

func TestScore_EmptyInputs(t *testing.T) {
	scorer := NewScorer(NewPreprocessor())

	assert.Empty(t, scorer.Score("貸款", nil))

	scores := scorer.Score("", []string{"貸款利率"})
	assert.Equal(t, []float64{0}, scores)
}
