package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenMetadata(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "primitives pass through",
			in:   map[string]any{"department": "credit", "year": 2023, "rate": 1.5, "active": true},
			want: map[string]any{"department": "credit", "year": 2023, "rate": 1.5, "active": true},
		},
		{
			name: "list becomes comma-joined string",
			in:   map[string]any{"tags": []string{"貸款", "利率"}},
			want: map[string]any{"tags": "貸款,利率"},
		},
		{
			name: "mixed list values are printed",
			in:   map[string]any{"pages": []any{1, "附錄"}},
			want: map[string]any{"pages": "1,附錄"},
		},
		{
			name: "map becomes JSON string",
			in:   map[string]any{"extra": map[string]any{"year": 2023}},
			want: map[string]any{"extra": `{"year":2023}`},
		},
		{
			name: "nil value is kept",
			in:   map[string]any{"note": nil},
			want: map[string]any{"note": nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlattenMetadata(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlattenMetadata_RejectsUnsupportedValues(t *testing.T) {
	_, err := FlattenMetadata(map[string]any{"callback": func() {}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFlattenMetadata_CopiesInput(t *testing.T) {
	in := map[string]any{"department": "credit"}
	got, err := FlattenMetadata(in)
	require.NoError(t, err)

	got["department"] = "insurance"
	assert.Equal(t, "credit", in["department"])
}
