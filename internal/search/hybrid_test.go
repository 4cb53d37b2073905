package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichat/agrichat/internal/core/domain"
)

func TestNewEngine_WeightValidation(t *testing.T) {
	tests := []struct {
		name    string
		lexical float64
		vector  float64
		wantErr bool
	}{
		{"default weights", 0.5, 0.5, false},
		{"lexical only", 1.0, 0.0, false},
		{"vector only", 0.0, 1.0, false},
		{"negative lexical", -0.1, 0.5, true},
		{"negative vector", 0.5, -0.1, true},
		{"both zero", 0.0, 0.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.lexical, tt.vector)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, engine)
		})
	}
}

func TestSearch_ExactFusion(t *testing.T) {
	engine, err := NewEngine(0.6, 0.4)
	require.NoError(t, err)

	candidates := []Candidate{
		{Content: "貸款利率"},
		{Content: "無關內容"},
	}
	items, err := engine.Search("貸款利率", candidates, []float64{0.5, 1.0}, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Candidate 0 scores lexical 1.0 (batch max), candidate 1 scores 0.
	first := items[0]
	assert.InDelta(t, 0.6*1.0+0.4*0.5, first.FusedScore, 1e-9)
	assert.InDelta(t, 1.0, first.LexicalScore, 1e-9)
	assert.InDelta(t, 0.5, first.VectorScore, 1e-9)

	second := items[1]
	assert.InDelta(t, 0.4*1.0, second.FusedScore, 1e-9)
}

func TestSearch_RanksByFusedScoreDescending(t *testing.T) {
	engine, err := NewEngine(0.5, 0.5)
	require.NoError(t, err)

	candidates := []Candidate{
		{Content: "天氣預報"},
		{Content: "貸款利率優惠"},
		{Content: "貸款申請流程"},
	}
	items, err := engine.Search("貸款利率", candidates, []float64{0.1, 0.9, 0.4}, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].FusedScore, items[i].FusedScore)
	}
	assert.Equal(t, "貸款利率優惠", items[0].Content)
}

func TestSearch_StableOnTies(t *testing.T) {
	engine, err := NewEngine(0.0, 1.0)
	require.NoError(t, err)

	// Identical vector scores and no lexical signal: input order must
	// be preserved.
	candidates := []Candidate{
		{Content: "甲"},
		{Content: "乙"},
		{Content: "丙"},
	}
	items, err := engine.Search("貸款", candidates, []float64{0.7, 0.7, 0.7}, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "甲", items[0].Content)
	assert.Equal(t, "乙", items[1].Content)
	assert.Equal(t, "丙", items[2].Content)
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	engine, err := NewEngine(0.5, 0.5)
	require.NoError(t, err)

	candidates := make([]Candidate, 10)
	scores := make([]float64, 10)
	for i := range candidates {
		candidates[i] = Candidate{Content: "貸款"}
		scores[i] = float64(i) / 10
	}

	items, err := engine.Search("貸款", candidates, scores, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	// Fewer candidates than topK returns everything.
	items, err = engine.Search("貸款", candidates[:2], scores[:2], 5)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSearch_InputValidation(t *testing.T) {
	engine, err := NewEngine(0.5, 0.5)
	require.NoError(t, err)

	_, err = engine.Search("貸款", []Candidate{{Content: "a"}}, []float64{0.1, 0.2}, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = engine.Search("貸款", []Candidate{{Content: "a"}}, []float64{0.1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_MetadataCarriedThrough(t *testing.T) {
	engine, err := NewEngine(0.5, 0.5)
	require.NoError(t, err)

	candidates := []Candidate{
		{Content: "貸款利率", Metadata: map[string]any{"source": "rates.md", "department": "信用部"}},
	}
	items, err := engine.Search("貸款", candidates, []float64{0.9}, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "rates.md", items[0].Metadata["source"])
	assert.Equal(t, "信用部", items[0].Metadata["department"])
}
