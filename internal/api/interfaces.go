package api

import (
	"context"

	"hypercare/internal/models"
	"hypercare/internal/services"
)

// Interfaces the handlers consume, defined here and satisfied by the
// repository and services packages.

type ChatbotStore interface {
	Create(ctx context.Context, create *models.ChatbotCreate) (*models.Chatbot, error)
	GetByID(ctx context.Context, id string) (*models.Chatbot, error)
	GetBySlug(ctx context.Context, slug string) (*models.Chatbot, error)
	List(ctx context.Context, limit, offset int) ([]*models.Chatbot, error)
	Update(ctx context.Context, id string, update *models.ChatbotUpdate) (*models.Chatbot, error)
	Delete(ctx context.Context, id string) error
}

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByChatbot(ctx context.Context, chatbotID string) ([]*models.Document, error)
	Delete(ctx context.Context, id string) error
}

type ConversationStore interface {
	Create(ctx context.Context, chatbotID, sessionID string) (*models.Conversation, error)
	End(ctx context.Context, conversationID string) error
	Stats(ctx context.Context, chatbotID string) (*models.ChatbotStats, error)
}

// Processor is the async ingest pipeline as seen from the upload endpoint.
type Processor interface {
	SubmitJob(job services.ProcessingJob) error
	Reprocess(ctx context.Context, documentID string) error
	QueueLength() int
}

// ChatService runs one chat turn, pushing stream events through emit.
type ChatService interface {
	ProcessMessage(ctx context.Context, chatbot *models.Chatbot, conversationID, message string, emit services.EmitFunc) error
}
