package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hypercare/internal/models"

	"gorm.io/gorm"
)

// DocumentRepositoryImpl handles document records. The processing pipeline
// owns the ProcessedAt/VectorIDs fields; everything else is written once at
// upload time.
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) ListByChatbot(ctx context.Context, chatbotID string) ([]*models.Document, error) {
	var documents []*models.Document
	err := r.db.WithContext(ctx).
		Where("chatbot_id = ?", chatbotID).
		Order("id DESC").
		Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (r *DocumentRepositoryImpl) CountByChatbot(ctx context.Context, chatbotID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("chatbot_id = ?", chatbotID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// MarkProcessed records a completed pipeline run. An empty vectorIDs slice is
// valid: failed extraction still marks the document processed so it never
// sits pending forever. The update goes through struct fields rather than a
// column map so the JSON serializer on VectorIDs is applied; a map value
// would be bound raw and break the jsonb column.
func (r *DocumentRepositoryImpl) MarkProcessed(ctx context.Context, id string, vectorIDs []string) error {
	if vectorIDs == nil {
		vectorIDs = []string{}
	}
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Select("processed_at", "vector_ids").
		Updates(&models.Document{ProcessedAt: &now, VectorIDs: vectorIDs}).Error
	if err != nil {
		return fmt.Errorf("failed to mark document processed: %w", err)
	}
	return nil
}

// ResetProcessing clears the processed state before a reprocess run. Select
// forces the zero-valued fields through, so processed_at goes back to NULL
// and vector_ids to an empty JSON array.
func (r *DocumentRepositoryImpl) ResetProcessing(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Select("processed_at", "vector_ids").
		Updates(&models.Document{ProcessedAt: nil, VectorIDs: []string{}}).Error
	if err != nil {
		return fmt.Errorf("failed to reset document: %w", err)
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, id)
	}
	return nil
}
