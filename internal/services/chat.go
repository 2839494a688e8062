package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"hypercare/internal/middleware"
	"hypercare/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const excerptPreviewLen = 200

// EmitFunc delivers one stream event to the client. Transports (SSE,
// WebSocket) supply their own; a returned error means the client is gone and
// the stream should stop.
type EmitFunc func(models.StreamEvent) error

// ChatServiceImpl orchestrates one chat turn: load history, retrieve context,
// stream a generated answer, persist both sides of the exchange. When the
// generation backend is not configured or fails mid-stream, it degrades to a
// deterministic local answer delivered through the same streaming protocol.
type ChatServiceImpl struct {
	docRepo      DocumentRepository
	convRepo     ConversationRepository
	retriever    *RetrieverServiceImpl
	generator    Generator
	historyLimit int
	maxTokens    int
	fallbackTick time.Duration
}

func NewChatService(
	docRepo DocumentRepository,
	convRepo ConversationRepository,
	retriever *RetrieverServiceImpl,
	generator Generator,
	historyLimit, maxTokens int,
	fallbackTick time.Duration,
) *ChatServiceImpl {
	return &ChatServiceImpl{
		docRepo:      docRepo,
		convRepo:     convRepo,
		retriever:    retriever,
		generator:    generator,
		historyLimit: historyLimit,
		maxTokens:    maxTokens,
		fallbackTick: fallbackTick,
	}
}

// ProcessMessage handles one user message end to end. Events are pushed to
// emit in order: zero or more content events, one metadata event, then done.
// The user turn is persisted before generation starts; the assistant turn is
// persisted with whatever text was actually streamed, even when generation
// failed partway and the fallback finished the answer.
func (s *ChatServiceImpl) ProcessMessage(ctx context.Context, chatbot *models.Chatbot, conversationID, message string, emit EmitFunc) error {
	ctx, span := middleware.StartSpan(ctx, "Chat.ProcessMessage",
		attribute.String("chatbot.id", chatbot.ID),
		attribute.String("conversation.id", conversationID),
	)
	defer span.End()

	// History is loaded before the new message is appended so the model sees
	// prior turns only, with the fresh message passed separately.
	history, err := s.convRepo.History(ctx, conversationID, s.historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if err := s.convRepo.AppendMessage(ctx, conversationID, "user", message, 0); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}

	results, status, err := s.retriever.SearchRelevant(ctx, chatbot.ID, message)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return fmt.Errorf("retrieve context: %w", err)
	}
	if status == RetrievalStoreUnavailable {
		log.Printf("⚠️  Chatbot %s answering without document context (store unavailable)", chatbot.ID)
	}

	var answer string
	var tokensUsed int
	if s.generator.Configured() {
		answer, tokensUsed, err = s.streamGenerated(ctx, chatbot, history, message, results, emit)
	} else {
		answer, err = s.streamFallback(ctx, chatbot.ID, message, emit, "")
	}
	if err != nil {
		// Client disconnect or cancellation: keep the partial answer in the
		// conversation so the transcript reflects what was actually sent.
		if answer != "" {
			if appendErr := s.convRepo.AppendMessage(ctx, conversationID, "assistant", answer, tokensUsed); appendErr != nil {
				log.Printf("⚠️  Failed to persist partial assistant turn: %v", appendErr)
			}
		}
		return err
	}

	if err := s.convRepo.AppendMessage(ctx, conversationID, "assistant", answer, tokensUsed); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}

	if err := emit(metadataEvent(results)); err != nil {
		return err
	}
	return emit(models.StreamEvent{Type: models.StreamEventDone})
}

// streamGenerated runs the real backend. A mid-stream failure does not kill
// the turn: the fallback takes over and its output is appended to whatever
// had already been streamed, through the same emit channel.
func (s *ChatServiceImpl) streamGenerated(ctx context.Context, chatbot *models.Chatbot, history []models.ChatMessage, message string, results []models.RetrievalResult, emit EmitFunc) (string, int, error) {
	stream, err := s.generator.Stream(ctx, buildSystemPrompt(chatbot.SystemPrompt, results), history, message, s.maxTokens)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		log.Printf("⚠️  Generation backend refused stream, falling back: %v", err)
		answer, fbErr := s.streamFallback(ctx, chatbot.ID, message, emit, "")
		return answer, 0, fbErr
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return sb.String(), stream.TokensUsed(), ctx.Err()
		default:
		}

		delta, err := stream.Recv()
		if err == io.EOF {
			return sb.String(), stream.TokensUsed(), nil
		}
		if err != nil {
			middleware.AddSpanError(ctx, err)
			log.Printf("⚠️  Generation stream broke, falling back: %v", err)
			answer, fbErr := s.streamFallback(ctx, chatbot.ID, message, emit, sb.String())
			return answer, stream.TokensUsed(), fbErr
		}
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := emit(models.StreamEvent{Type: models.StreamEventContent, Content: delta}); err != nil {
			return sb.String(), stream.TokensUsed(), err
		}
	}
}

// streamFallback streams a deterministic local answer word by word with a
// fixed delay, indistinguishable at the protocol level from a generated one.
// prefix carries any partial text already streamed before a mid-stream
// failure; the returned answer includes it.
func (s *ChatServiceImpl) streamFallback(ctx context.Context, chatbotID, message string, emit EmitFunc, prefix string) (string, error) {
	count, err := s.docRepo.CountByChatbot(ctx, chatbotID)
	if err != nil {
		log.Printf("⚠️  Document count unavailable for fallback: %v", err)
		count = 0
	}

	text := fallbackText(message, count)
	var sb strings.Builder
	sb.WriteString(prefix)

	for _, word := range strings.Fields(text) {
		select {
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		case <-time.After(s.fallbackTick):
		}
		piece := word + " "
		sb.WriteString(piece)
		if err := emit(models.StreamEvent{Type: models.StreamEventContent, Content: piece}); err != nil {
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// fallbackText restates the user's question verbatim and reports how many
// documents are indexed, so the reply is honest about operating offline.
func fallbackText(message string, documentCount int64) string {
	return fmt.Sprintf(
		"I received your message: %q. I'm currently running without a language model backend, "+
			"so I can't generate a full answer, but this chatbot has %d document(s) indexed. "+
			"Please try again once the backend is configured.",
		message, documentCount,
	)
}

// buildSystemPrompt appends retrieved excerpts to the chatbot's configured
// prompt. No excerpts means no RELEVANT DOCUMENTS block at all.
func buildSystemPrompt(base string, results []models.RetrievalResult) string {
	if len(results) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nRELEVANT DOCUMENTS:\n")
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n[Document %d]\n%s\n", i+1, r.Content))
	}
	return sb.String()
}

// metadataEvent summarizes the retrieval for the client, with excerpt text
// truncated so the event stays small.
func metadataEvent(results []models.RetrievalResult) models.StreamEvent {
	excerpts := make([]models.RelevantExcerpt, 0, len(results))
	for _, r := range results {
		content := r.Content
		if len(content) > excerptPreviewLen {
			content = content[:excerptPreviewLen] + "..."
		}
		excerpts = append(excerpts, models.RelevantExcerpt{
			Content:        content,
			RelevanceScore: r.RelevanceScore,
			Metadata:       r.Metadata,
		})
	}
	return models.StreamEvent{
		Type:              models.StreamEventMetadata,
		DocumentsUsed:     len(results),
		RelevantDocuments: excerpts,
	}
}
