package repository

import (
	"context"
	"fmt"
	"time"

	"hypercare/internal/models"

	"gorm.io/gorm"
)

// ConversationRepositoryImpl persists conversations and their messages. The
// chat pipeline only relies on the append/read contract: AppendMessage adds a
// turn, History returns the last N turns in chronological order.
type ConversationRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepositoryImpl {
	return &ConversationRepositoryImpl{db: db}
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, chatbotID, sessionID string) (*models.Conversation, error) {
	conversation := &models.Conversation{
		ChatbotID: chatbotID,
		SessionID: sessionID,
	}
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

func (r *ConversationRepositoryImpl) AppendMessage(ctx context.Context, conversationID, role, content string, tokensUsed int) error {
	message := &models.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		TokensUsed:     tokensUsed,
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// History returns the last limit messages in chronological order. The query
// walks newest-first (KSUIDs sort by creation time) and the result is
// reversed before returning.
func (r *ConversationRepositoryImpl) History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := make([]models.ChatMessage, len(messages))
	for i, msg := range messages {
		history[len(messages)-1-i] = models.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	return history, nil
}

func (r *ConversationRepositoryImpl) End(ctx context.Context, conversationID string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("ended_at", &now).Error
	if err != nil {
		return fmt.Errorf("failed to end conversation: %w", err)
	}
	return nil
}

// Stats aggregates conversation activity for one chatbot.
func (r *ConversationRepositoryImpl) Stats(ctx context.Context, chatbotID string) (*models.ChatbotStats, error) {
	var stats models.ChatbotStats

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(DISTINCT c.id) AS total_conversations,
			COUNT(m.id) AS total_messages,
			COALESCE(AVG(m.tokens_used), 0) AS avg_tokens_per_msg
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.chatbot_id = ?
	`, chatbotID).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return &stats, nil
}
