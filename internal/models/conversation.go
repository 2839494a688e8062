package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Conversation groups the messages of one chat widget session.
type Conversation struct {
	ID        string     `json:"id" gorm:"type:char(27);primaryKey"`
	ChatbotID string     `json:"chatbot_id" gorm:"type:char(27);not null;index"`
	SessionID string     `json:"session_id" gorm:"type:varchar(64);not null"`
	StartedAt time.Time  `json:"started_at" gorm:"column:started_at;autoCreateTime"`
	EndedAt   *time.Time `json:"ended_at,omitempty" gorm:"column:ended_at"`
}

// BeforeCreate hook generates KSUID before inserting
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

// Message is a single conversation turn. Rows are append-only; the chat
// pipeline reads the last N in chronological order to build prompt history.
type Message struct {
	ID             string    `json:"id" gorm:"type:char(27);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(27);not null;index"`
	Role           string    `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	TokensUsed     int       `json:"tokens_used"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = ksuid.New().String()
	}
	return nil
}

// ChatMessage is the role/content pair handed to the generation backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatbotStats summarizes conversation activity for one chatbot.
type ChatbotStats struct {
	TotalConversations int64   `json:"total_conversations"`
	TotalMessages      int64   `json:"total_messages"`
	AvgTokensPerMsg    float64 `json:"avg_tokens_per_message"`
}
