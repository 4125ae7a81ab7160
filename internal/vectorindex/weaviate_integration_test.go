//go:build integration

package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/testutil"
)

func TestWeaviateIndex_Integration(t *testing.T) {
	ctx := context.Background()
	wc := testutil.NewWeaviateContainer(ctx, t)
	defer wc.Terminate(ctx)

	client, err := NewWeaviateClient(wc.URL())
	require.NoError(t, err)
	idx := NewWeaviateIndex(client, "TestChunk", logger.Nop())
	require.NoError(t, idx.EnsureSchema(ctx))
	require.NoError(t, idx.EnsureSchema(ctx))

	chunks := testChunks("doc1", []string{
		"Học phí ngành Khoa học máy tính",
		"Ký túc xá cho sinh viên",
	}, [][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, idx.Insert(ctx, chunks))

	hits, err := idx.Search(ctx, retrieval.SearchRequest{
		Query:     "hoc phi",
		Embedding: []float32{1, 0, 0},
		Alpha:     0.5,
		Limit:     5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "doc1-a", hits[0].Chunk.ID)
	assert.Equal(t, "doc1", hits[0].Chunk.ParentID())

	require.NoError(t, idx.DeleteByParent(ctx, "doc1"))
	hits, err = idx.Search(ctx, retrieval.SearchRequest{Query: "hoc phi", Embedding: []float32{1, 0, 0}, Alpha: 0.5, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
