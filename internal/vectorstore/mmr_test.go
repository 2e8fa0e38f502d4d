package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMaxMarginalRelevance_FirstPickIsMostRelevant(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},
		{1, 0},
		{0.7, 0.7},
	}

	picked := MaxMarginalRelevance(query, candidates, 0.5, 1)
	assert.Equal(t, []int{1}, picked)
}

func TestMaxMarginalRelevance_PrefersDiverseSecondPick(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := [][]float32{
		{1, 0.1, 0},
		{1, 0.12, 0}, // near duplicate of the first
		{1, 0, 0.3},  // a little less relevant but different
	}

	picked := MaxMarginalRelevance(query, candidates, 0.5, 2)
	assert.Equal(t, []int{0, 2}, picked)

	// With lambda 1 only relevance counts, so the near duplicate wins.
	picked = MaxMarginalRelevance(query, candidates, 1, 2)
	assert.Equal(t, []int{0, 1}, picked)
}

func TestMaxMarginalRelevance_Bounds(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}, {0, 1}}

	assert.Len(t, MaxMarginalRelevance(query, candidates, 0.5, 5), 2)
	assert.Empty(t, MaxMarginalRelevance(query, candidates, 0.5, 0))
	assert.Empty(t, MaxMarginalRelevance(query, nil, 0.5, 3))
}

func TestMaxMarginalRelevance_Deterministic(t *testing.T) {
	query := []float32{1, 1}
	candidates := [][]float32{{1, 1}, {1, 1}, {1, 1}, {2, 2}}

	first := MaxMarginalRelevance(query, candidates, 0.5, 3)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, MaxMarginalRelevance(query, candidates, 0.5, 3))
	}
	assert.Len(t, first, 3)
}

func TestTopBySimilarity(t *testing.T) {
	query := []float32{1, 0}
	vectors := [][]float32{{0, 1}, {1, 0}, {1, 1}}

	assert.Equal(t, []int{1, 2}, topBySimilarity(query, vectors, 2))
	assert.Equal(t, []int{1, 2, 0}, topBySimilarity(query, vectors, 10))
}
