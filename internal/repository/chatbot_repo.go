package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"hypercare/internal/models"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ChatbotRepositoryImpl handles chatbot persistence. Consumers declare the
// interface they need; this package only ships the implementation.
type ChatbotRepositoryImpl struct {
	db *gorm.DB
}

func NewChatbotRepository(db *gorm.DB) *ChatbotRepositoryImpl {
	return &ChatbotRepositoryImpl{db: db}
}

// Create inserts a chatbot, deriving a unique slug from the name.
func (r *ChatbotRepositoryImpl) Create(ctx context.Context, create *models.ChatbotCreate) (*models.Chatbot, error) {
	chatbot := &models.Chatbot{
		Name:           create.Name,
		Slug:           makeSlug(create.Name),
		SystemPrompt:   create.SystemPrompt,
		WelcomeMessage: create.WelcomeMessage,
		IsActive:       true,
		Config:         create.Config,
	}

	if err := r.db.WithContext(ctx).Create(chatbot).Error; err != nil {
		return nil, fmt.Errorf("failed to create chatbot: %w", err)
	}
	return chatbot, nil
}

func (r *ChatbotRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	err := r.db.WithContext(ctx).First(&chatbot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrChatbotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	return &chatbot, nil
}

func (r *ChatbotRepositoryImpl) GetBySlug(ctx context.Context, slug string) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	err := r.db.WithContext(ctx).First(&chatbot, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrChatbotNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	return &chatbot, nil
}

// List returns chatbots newest first. KSUIDs are time-ordered, so sorting by
// id sorts by creation time.
func (r *ChatbotRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Chatbot, error) {
	var chatbots []*models.Chatbot
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&chatbots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", err)
	}
	return chatbots, nil
}

func (r *ChatbotRepositoryImpl) Update(ctx context.Context, id string, update *models.ChatbotUpdate) (*models.Chatbot, error) {
	var chatbot models.Chatbot
	if err := r.db.WithContext(ctx).First(&chatbot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrChatbotNotFound, id)
		}
		return nil, fmt.Errorf("failed to find chatbot: %w", err)
	}

	// Build a struct patch plus an explicit field list. Struct updates run
	// the JSON serializer on Config, which a column map would bypass, and
	// the Select keeps zero values like IsActive=false from being skipped.
	var patch models.Chatbot
	var fields []string
	if update.Name != nil {
		patch.Name = *update.Name
		fields = append(fields, "name")
	}
	if update.SystemPrompt != nil {
		patch.SystemPrompt = *update.SystemPrompt
		fields = append(fields, "system_prompt")
	}
	if update.WelcomeMessage != nil {
		patch.WelcomeMessage = *update.WelcomeMessage
		fields = append(fields, "welcome_message")
	}
	if update.IsActive != nil {
		patch.IsActive = *update.IsActive
		fields = append(fields, "is_active")
	}
	if update.Config != nil {
		patch.Config = update.Config
		fields = append(fields, "config")
	}
	if len(fields) == 0 {
		return &chatbot, nil
	}

	if err := r.db.WithContext(ctx).Model(&chatbot).Select(fields).Updates(&patch).Error; err != nil {
		return nil, fmt.Errorf("failed to update chatbot: %w", err)
	}
	return &chatbot, nil
}

func (r *ChatbotRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Chatbot{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete chatbot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrChatbotNotFound, id)
	}
	return nil
}

// makeSlug builds a URL-safe, unique slug: lowercased name plus a short KSUID
// suffix so two chatbots can share a display name.
func makeSlug(name string) string {
	base := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "chatbot"
	}
	suffix := strings.ToLower(ksuid.New().String())
	return base + "-" + suffix[len(suffix)-8:]
}
