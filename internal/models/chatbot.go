package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Chatbot is a configured assistant with its own document namespace.
// KSUID primary keys keep inserts sequential and sort by creation time.
type Chatbot struct {
	ID             string         `json:"id" gorm:"type:char(27);primaryKey"`
	Name           string         `json:"name" gorm:"type:text;not null"`
	Slug           string         `json:"slug" gorm:"type:varchar(120);not null;uniqueIndex"`
	SystemPrompt   string         `json:"system_prompt" gorm:"type:text"`
	WelcomeMessage string         `json:"welcome_message" gorm:"type:text"`
	IsActive       bool           `json:"is_active" gorm:"not null;default:true"`
	Config         map[string]any `json:"config" gorm:"type:jsonb;serializer:json;default:'{}'"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"column:deleted_at;index"`
}

// BeforeCreate hook generates KSUID before inserting
func (c *Chatbot) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}

type ChatbotCreate struct {
	Name           string         `json:"name"`
	SystemPrompt   string         `json:"system_prompt"`
	WelcomeMessage string         `json:"welcome_message"`
	Config         map[string]any `json:"config"`
}

type ChatbotUpdate struct {
	Name           *string        `json:"name,omitempty"`
	SystemPrompt   *string        `json:"system_prompt,omitempty"`
	WelcomeMessage *string        `json:"welcome_message,omitempty"`
	IsActive       *bool          `json:"is_active,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
}
