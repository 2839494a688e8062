package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	assert.Empty(t, Chunk("", 1000, 100))
	assert.Empty(t, Chunk("\n\n\n\n", 1000, 100))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("Just one short paragraph.", 1000, 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short paragraph.", chunks[0])
}

func TestChunk_Deterministic(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph follows.\n\nAnd a third one."

	first := Chunk(text, 40, 10)
	second := Chunk(text, 40, 10)

	assert.Equal(t, first, second)
}

func TestChunk_OversizedSentenceHardCut(t *testing.T) {
	chunks := Chunk("Hello world. Hello again.", 10, 0)

	require.Equal(t, []string{"Hello worl", "d.", "Hello again."}, chunks)
}

func TestChunk_UnpunctuatedTextRespectsLimit(t *testing.T) {
	text := strings.Repeat("a", 2500)

	chunks := Chunk(text, 1000, 100)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunk_ParagraphBoundaryOverlap(t *testing.T) {
	text := "one two three four five six\n\nseven eight"

	chunks := Chunk(text, 30, 10)

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four five six", chunks[0])
	// 10-char overlap carries the last 2 words into the next chunk.
	assert.Equal(t, "five six seven eight", chunks[1])
}

func TestChunk_NoParagraphDropped(t *testing.T) {
	paragraphs := []string{
		"Alpha bravo charlie delta.",
		"Echo foxtrot golf hotel.",
		"India juliett kilo lima.",
		"Mike november oscar papa.",
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := Chunk(text, 60, 20)
	joined := strings.Join(chunks, " ")

	for _, p := range paragraphs {
		assert.Contains(t, joined, p)
	}
}

func TestChunk_DefaultsApplied(t *testing.T) {
	text := "Some text."

	assert.Equal(t, []string{"Some text."}, Chunk(text, 0, -5))
}

func TestSplitSentences_KeepsUnterminatedTail(t *testing.T) {
	sentences := splitSentences("Complete sentence. Trailing fragment without punctuation")

	require.Len(t, sentences, 2)
	assert.Equal(t, "Complete sentence.", sentences[0])
	assert.Equal(t, "Trailing fragment without punctuation", sentences[1])
}
