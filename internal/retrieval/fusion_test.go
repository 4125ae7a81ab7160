package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func TestFuseAlpha(t *testing.T) {
	dense := []domain.ScoredChunk{hit("a", 2, 0.9), hit("b", 1, 0.5), hit("c", 3, 0.1)}
	sparse := []domain.ScoredChunk{hit("b", 1, 10), hit("d", 0, 4), hit("a", 2, 2)}

	got := FuseAlpha(dense, sparse, 0.5, 0)
	require.Equal(t, []string{"b", "a", "d", "c"}, ids(got))
	assert.InDelta(t, 0.75, got[0].Score, 1e-6)
	assert.InDelta(t, 0.5, got[1].Score, 1e-6)
	assert.InDelta(t, 0.125, got[2].Score, 1e-6)
	for i, h := range got {
		assert.Equal(t, i+1, h.Rank)
	}

	assert.Equal(t, []string{"b", "a", "d"}, ids(FuseAlpha(dense, sparse, 0.5, 3)))
}

func TestFuseAlpha_DenseOnlyBreaksTiesBySeq(t *testing.T) {
	dense := []domain.ScoredChunk{hit("a", 2, 0.9), hit("b", 1, 0.5), hit("c", 3, 0.1)}
	sparse := []domain.ScoredChunk{hit("b", 1, 10), hit("d", 0, 4), hit("a", 2, 2)}

	assert.Equal(t, []string{"a", "b", "d", "c"}, ids(FuseAlpha(dense, sparse, 1, 0)))
}

func TestFuseAlpha_EqualScores(t *testing.T) {
	got := FuseAlpha([]domain.ScoredChunk{hit("x", 5, 0.3), hit("y", 4, 0.3)}, nil, 0.5, 0)
	assert.Equal(t, []string{"y", "x"}, ids(got))
	assert.InDelta(t, 0.5, got[0].Score, 1e-6)
}

func TestFuseAlpha_Empty(t *testing.T) {
	assert.Empty(t, FuseAlpha(nil, nil, 0.5, 5))
}

func TestFuseRRF(t *testing.T) {
	dense := []domain.ScoredChunk{hit("a", 0, 0.9), hit("b", 1, 0.8)}
	sparse := []domain.ScoredChunk{hit("b", 1, 3), hit("c", 2, 1)}

	got := FuseRRF(dense, sparse, 0)
	require.Equal(t, []string{"b", "a", "c"}, ids(got))
	assert.InDelta(t, 1.0/62+0.85/61, got[0].Score, 1e-6)
}

func TestSortRanked(t *testing.T) {
	hits := []domain.ScoredChunk{hit("c", 3, 0.5), hit("a", 1, 0.5), hit("z", 9, 0.9), hit("b", 1, 0.5)}
	SortRanked(hits)

	assert.Equal(t, []string{"z", "a", "b", "c"}, ids(hits))
	assert.Equal(t, 4, hits[3].Rank)
}
