package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
	"github.com/JoelJohnsonThomas/nexus-pipeline/storage"
)

func TestSummaryPutGet(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	summary := &core.Summary{
		ItemId:    1,
		Summary:   "A short summary.",
		KeyPoints: []string{"point one", "point two"},
		Model:     "test-model",
	}

	_, err = repos.Summaries.PutSummary(ctx, summary)
	require.NoError(t, err)

	retrieved, err := repos.Summaries.GetSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", retrieved.Summary)
	assert.Equal(t, []string{"point one", "point two"}, retrieved.KeyPoints)
	assert.False(t, retrieved.InsertedAt.IsZero())

	has, err := repos.Summaries.HasSummary(ctx, 1)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repos.Summaries.HasSummary(ctx, 2)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSummaryDuplicateKey(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = repos.Summaries.PutSummary(ctx, &core.Summary{ItemId: 1, Summary: "first"})
	require.NoError(t, err)

	_, err = repos.Summaries.PutSummary(ctx, &core.Summary{ItemId: 1, Summary: "second"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// First write wins
	retrieved, err := repos.Summaries.GetSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", retrieved.Summary)
}

func TestEmbeddingPutGet(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	embedding := &core.Embedding{
		ItemId: 1,
		Vector: []float32{0.6, 0.8},
		Model:  "test-embed",
	}

	_, err = repos.Embeddings.PutEmbedding(ctx, embedding)
	require.NoError(t, err)

	retrieved, err := repos.Embeddings.GetEmbedding(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, retrieved.Vector)

	_, err = repos.Embeddings.PutEmbedding(ctx, &core.Embedding{ItemId: 1, Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = repos.Embeddings.GetEmbedding(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingFindSimilar(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	vectors := map[core.ID][]float32{
		1: {1, 0},
		2: {0.9, 0.4359},
		3: {0, 1},
	}
	for id, v := range vectors {
		_, err := repos.Embeddings.PutEmbedding(ctx, &core.Embedding{ItemId: id, Vector: v})
		require.NoError(t, err)
	}

	matches, err := repos.Embeddings.FindSimilar(ctx, []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Ordered by score descending
	assert.Equal(t, core.ID(1), matches[0].ItemId)
	assert.Equal(t, core.ID(2), matches[1].ItemId)

	// Limit applies after sorting
	matches, err = repos.Embeddings.FindSimilar(ctx, []float32{1, 0}, -1, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.ID(1), matches[0].ItemId)
}
