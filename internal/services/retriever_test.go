package services

import (
	"context"
	"fmt"
	"testing"

	"hypercare/internal/embedding"
	"hypercare/internal/models"
	"hypercare/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIndex serves canned matches or a canned error.
type stubIndex struct {
	matches []vectorstore.Match
	err     error
}

func (s *stubIndex) EnsureNamespace(ctx context.Context, chatbotID string) error { return nil }
func (s *stubIndex) Store(ctx context.Context, chatbotID, documentID string, chunks []string, vectors [][]float32) ([]string, error) {
	return nil, nil
}
func (s *stubIndex) Query(ctx context.Context, chatbotID string, vector []float32, k int) ([]vectorstore.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	if k > len(s.matches) {
		k = len(s.matches)
	}
	return s.matches[:k], nil
}
func (s *stubIndex) Delete(ctx context.Context, chatbotID string, ids []string) error { return nil }
func (s *stubIndex) DeleteNamespace(ctx context.Context, chatbotID string) error      { return nil }
func (s *stubIndex) Count(ctx context.Context, chatbotID string) (int, error) {
	return len(s.matches), nil
}

func match(content string, distance float64) vectorstore.Match {
	return vectorstore.Match{Content: content, Distance: distance}
}

func TestRelevance_ExactMatchScoresOne(t *testing.T) {
	assert.Equal(t, 1.0, relevance(0))
}

func TestRelevance_DecreasesWithDistance(t *testing.T) {
	assert.Greater(t, relevance(0.1), relevance(0.5))
	assert.Greater(t, relevance(0.5), relevance(2.0))
	assert.InDelta(t, 0.5, relevance(1.0), 1e-9)
}

func TestSearchRelevant_FiltersBelowThreshold(t *testing.T) {
	idx := &stubIndex{matches: []vectorstore.Match{
		match("near", 0.2), // score 0.833
		match("far", 3.0),  // score 0.25
	}}
	r := NewRetrieverService(idx, embedding.NewDeterministic(), 3, 0.5, 8000)

	results, status, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Equal(t, RetrievalFound, status)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].Content)
	assert.InDelta(t, 1.0/1.2, results[0].RelevanceScore, 1e-9)
}

func TestSearchRelevant_NoMatchesStatus(t *testing.T) {
	r := NewRetrieverService(&stubIndex{}, embedding.NewDeterministic(), 3, 0.0005, 8000)

	results, status, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Equal(t, RetrievalNoMatches, status)
	assert.Empty(t, results)
}

func TestSearchRelevant_AllFilteredIsNoMatches(t *testing.T) {
	idx := &stubIndex{matches: []vectorstore.Match{match("far", 100)}}
	r := NewRetrieverService(idx, embedding.NewDeterministic(), 3, 0.5, 8000)

	results, status, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Equal(t, RetrievalNoMatches, status)
	assert.Empty(t, results)
}

func TestSearchRelevant_StoreUnavailableDegrades(t *testing.T) {
	idx := &stubIndex{err: fmt.Errorf("%w: connection refused", models.ErrStoreUnavailable)}
	r := NewRetrieverService(idx, embedding.NewDeterministic(), 3, 0.0005, 8000)

	results, status, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Equal(t, RetrievalStoreUnavailable, status)
	assert.Empty(t, results)
}

func TestSearchRelevant_ContextBudget(t *testing.T) {
	idx := &stubIndex{matches: []vectorstore.Match{
		match("aaaaaaaaaa", 0.1), // 10 chars
		match("bbbbbbbbbb", 0.2), // would exceed the 15-char budget
	}}
	r := NewRetrieverService(idx, embedding.NewDeterministic(), 3, 0.0005, 15)

	results, status, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Equal(t, RetrievalFound, status)
	require.Len(t, results, 1)
	assert.Equal(t, "aaaaaaaaaa", results[0].Content)
}

func TestSearchRelevant_RespectsLimit(t *testing.T) {
	idx := &stubIndex{matches: []vectorstore.Match{
		match("one", 0.1),
		match("two", 0.2),
		match("three", 0.3),
	}}
	r := NewRetrieverService(idx, embedding.NewDeterministic(), 2, 0.0005, 8000)

	results, _, err := r.SearchRelevant(context.Background(), "bot-1", "question")

	require.NoError(t, err)
	assert.Len(t, results, 2)
}
