package services

import (
	"context"
	"errors"
	"log"

	"hypercare/internal/embedding"
	"hypercare/internal/middleware"
	"hypercare/internal/models"
	"hypercare/internal/vectorstore"

	"go.opentelemetry.io/otel/attribute"
)

// RetrievalStatus tells the caller why a retrieval came back the way it did,
// so the chat layer can word its answer honestly instead of conflating "no
// relevant documents" with "the store was down".
type RetrievalStatus int

const (
	RetrievalFound RetrievalStatus = iota
	RetrievalNoMatches
	RetrievalStoreUnavailable
)

// RetrieverServiceImpl turns a user query into scored document excerpts:
// embed the query, nearest-neighbor search the chatbot's namespace, convert
// distances to relevance, filter by threshold, cap by context budget.
type RetrieverServiceImpl struct {
	index    vectorstore.Index
	embedder embedding.Embedder

	limit           int
	minRelevance    float64
	maxContextChars int
}

func NewRetrieverService(index vectorstore.Index, embedder embedding.Embedder, limit int, minRelevance float64, maxContextChars int) *RetrieverServiceImpl {
	return &RetrieverServiceImpl{
		index:           index,
		embedder:        embedder,
		limit:           limit,
		minRelevance:    minRelevance,
		maxContextChars: maxContextChars,
	}
}

// relevance maps cosine distance to a (0, 1] score. An exact directional
// match scores 1.0; larger distances decay smoothly toward zero.
func relevance(distance float64) float64 {
	if distance == 0 {
		return 1.0
	}
	return 1.0 / (1.0 + distance)
}

// SearchRelevant returns the chunks worth citing for a query, most relevant
// first. The context budget is applied after the relevance filter: chunks are
// admitted in score order until adding the next one would exceed the budget.
// A store outage is reported via status, not as an error — the chat flow
// degrades to answering without context rather than failing the message.
func (s *RetrieverServiceImpl) SearchRelevant(ctx context.Context, chatbotID, query string) ([]models.RetrievalResult, RetrievalStatus, error) {
	ctx, span := middleware.StartSpan(ctx, "Retriever.SearchRelevant",
		attribute.String("chatbot.id", chatbotID),
	)
	defer span.End()

	vector, err := s.embedder.EmbedQuery(query)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, RetrievalNoMatches, err
	}

	matches, err := s.index.Query(ctx, chatbotID, vector, s.limit)
	if err != nil {
		if errors.Is(err, models.ErrStoreUnavailable) {
			middleware.AddSpanEvent(ctx, "store_unavailable")
			log.Printf("⚠️  Vector store unavailable for chatbot %s: %v", chatbotID, err)
			return nil, RetrievalStoreUnavailable, nil
		}
		middleware.AddSpanError(ctx, err)
		return nil, RetrievalNoMatches, err
	}

	results := make([]models.RetrievalResult, 0, len(matches))
	budget := s.maxContextChars
	for _, m := range matches {
		score := relevance(m.Distance)
		if score < s.minRelevance {
			continue
		}
		if len(m.Content) > budget {
			break
		}
		budget -= len(m.Content)
		results = append(results, models.RetrievalResult{
			Content:        m.Content,
			Metadata:       m.Metadata,
			Distance:       m.Distance,
			RelevanceScore: score,
		})
	}

	middleware.AddSpanEvent(ctx, "retrieval_complete",
		attribute.Int("matches", len(matches)),
		attribute.Int("kept", len(results)),
	)
	if len(results) == 0 {
		return nil, RetrievalNoMatches, nil
	}
	return results, RetrievalFound, nil
}
