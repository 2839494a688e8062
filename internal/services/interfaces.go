package services

import (
	"context"

	"hypercare/internal/models"
)

// Interfaces are declared here, in the consuming package, and implemented by
// the repository / client packages. Constructors accept these and return
// concrete structs, which keeps every collaborator swappable for a test
// double — including the generation backend and the vector store.

// DocumentRepository is what the pipeline and chat service need from document
// storage.
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	CountByChatbot(ctx context.Context, chatbotID string) (int64, error)
	MarkProcessed(ctx context.Context, id string, vectorIDs []string) error
	ResetProcessing(ctx context.Context, id string) error
}

// ConversationRepository is the read/append contract for chat history.
type ConversationRepository interface {
	AppendMessage(ctx context.Context, conversationID, role, content string, tokensUsed int) error
	History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error)
}

// TokenStream is a forward-only, single-pass stream of text deltas. Recv
// returns io.EOF once the message completes; Close releases the stream early.
type TokenStream interface {
	Recv() (string, error)
	TokensUsed() int
	Close() error
}

// Generator is the text-generation backend contract.
type Generator interface {
	Configured() bool
	Stream(ctx context.Context, system string, history []models.ChatMessage, userMessage string, maxTokens int) (TokenStream, error)
}
