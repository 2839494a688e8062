package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unit returns a unit vector pointing along the given axis.
func unit(axis int) []float32 {
	v := make([]float32, 4)
	v[axis] = 1
	return v
}

func TestMemoryIndex_StoreAndQueryOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	ids, err := idx.Store(ctx, "bot-1", "doc-1",
		[]string{"axis zero", "axis one", "axis two"},
		[][]float32{unit(0), unit(1), unit(2)},
	)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	matches, err := idx.Query(ctx, "bot-1", unit(1), 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "axis one", matches[0].Content)
	assert.InDelta(t, 0.0, matches[0].Distance, 1e-9)
	// Orthogonal vectors tie at distance 1; stable sort keeps store order.
	assert.Equal(t, "axis zero", matches[1].Content)
	assert.Equal(t, "axis two", matches[2].Content)
}

func TestMemoryIndex_QueryClampsK(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Store(ctx, "bot-1", "doc-1",
		[]string{"only", "two"},
		[][]float32{unit(0), unit(1)},
	)
	require.NoError(t, err)

	matches, err := idx.Query(ctx, "bot-1", unit(0), 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMemoryIndex_EmptyNamespaceReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	matches, err := idx.Query(ctx, "never-stored", unit(0), 5)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryIndex_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Store(ctx, "bot-a", "doc-a", []string{"a content"}, [][]float32{unit(0)})
	require.NoError(t, err)
	_, err = idx.Store(ctx, "bot-b", "doc-b", []string{"b content"}, [][]float32{unit(0)})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, "bot-a", unit(0), 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a content", matches[0].Content)
}

func TestMemoryIndex_MetadataPreservesChunkPosition(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Store(ctx, "bot-1", "doc-42",
		[]string{"first", "second"},
		[][]float32{unit(0), unit(1)},
	)
	require.NoError(t, err)

	matches, err := idx.Query(ctx, "bot-1", unit(1), 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "doc-42", matches[0].Metadata.DocumentID)
	assert.Equal(t, 1, matches[0].Metadata.ChunkIndex)
	assert.NotEmpty(t, matches[0].Metadata.Timestamp)
}

func TestMemoryIndex_DeleteRemovesOnlyGivenIDs(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	ids, err := idx.Store(ctx, "bot-1", "doc-1",
		[]string{"keep", "drop"},
		[][]float32{unit(0), unit(1)},
	)
	require.NoError(t, err)

	require.NoError(t, idx.Delete(ctx, "bot-1", ids[1:]))

	count, err := idx.Count(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := idx.Query(ctx, "bot-1", unit(1), 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "keep", matches[0].Content)
}

func TestMemoryIndex_DeleteNamespace(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Store(ctx, "bot-1", "doc-1", []string{"gone"}, [][]float32{unit(0)})
	require.NoError(t, err)

	require.NoError(t, idx.DeleteNamespace(ctx, "bot-1"))

	count, err := idx.Count(ctx, "bot-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryIndex_StoreLengthMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	_, err := idx.Store(ctx, "bot-1", "doc-1", []string{"one", "two"}, [][]float32{unit(0)})

	assert.Error(t, err)
}
