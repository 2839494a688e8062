// Package vectorstore provides chatbot-scoped storage of embedded chunks with
// nearest-neighbor search. Namespaces are disjoint: a query against one
// chatbot's namespace never returns items stored under another's.
package vectorstore

import (
	"context"

	"hypercare/internal/models"
)

// Item is one stored (vector, text, metadata) triple.
type Item struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata models.ChunkMetadata
}

// Match is a query hit. Distance is cosine distance: 0 for identical
// direction, growing as vectors diverge.
type Match struct {
	Content  string
	Metadata models.ChunkMetadata
	Distance float64
}

// Index is the vector store contract. Store generates one id per chunk/vector
// pair and preserves each chunk's original position in the metadata. Query
// returns matches in ascending distance order with k clamped to the current
// namespace size; an empty namespace yields an empty result, not an error.
// A transient backend failure surfaces as models.ErrStoreUnavailable.
type Index interface {
	EnsureNamespace(ctx context.Context, chatbotID string) error
	Store(ctx context.Context, chatbotID, documentID string, chunks []string, vectors [][]float32) ([]string, error)
	Query(ctx context.Context, chatbotID string, vector []float32, k int) ([]Match, error)
	Delete(ctx context.Context, chatbotID string, ids []string) error
	DeleteNamespace(ctx context.Context, chatbotID string) error
	Count(ctx context.Context, chatbotID string) (int, error)
}

// NamespaceName derives the backend collection name for a chatbot. Kept
// deterministic so every component addresses the same collection.
func NamespaceName(chatbotID string) string {
	return "chatbot_" + chatbotID
}
