package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func TestEmbed_Dimension(t *testing.T) {
	e := NewDeterministic()

	vectors, err := e.Embed([]string{"hello", "world"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], Dimension)
	assert.Len(t, vectors[1], Dimension)
}

func TestEmbed_Deterministic(t *testing.T) {
	e := NewDeterministic()

	first, err := e.EmbedQuery("the same text every time")
	require.NoError(t, err)
	second, err := e.EmbedQuery("the same text every time")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmbed_DistinctTextsDistinctVectors(t *testing.T) {
	e := NewDeterministic()

	a, err := e.EmbedQuery("how do I reset my password")
	require.NoError(t, err)
	b, err := e.EmbedQuery("what are your opening hours")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbed_UnitNorm(t *testing.T) {
	e := NewDeterministic()

	vectors, err := e.Embed([]string{
		"short",
		"a considerably longer piece of text with many more words in it than the first one",
	})
	require.NoError(t, err)

	for _, v := range vectors {
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}
}

func TestEmbed_IdenticalTextIsNearestPossible(t *testing.T) {
	e := NewDeterministic()

	base, err := e.EmbedQuery("billing invoice payment refund account")
	require.NoError(t, err)
	same, err := e.EmbedQuery("billing invoice payment refund account")
	require.NoError(t, err)
	other, err := e.EmbedQuery("zebra quantum saxophone volcano kite")
	require.NoError(t, err)

	// Cosine similarity via dot product, everything is unit-norm. An exact
	// match scores 1; anything else scores strictly less.
	assert.InDelta(t, 1.0, dot(base, same), 1e-5)
	assert.Less(t, dot(base, other), dot(base, same))
}

func TestEmbed_EmptyBatch(t *testing.T) {
	e := NewDeterministic()

	vectors, err := e.Embed(nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
}
