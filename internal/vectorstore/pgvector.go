package vectorstore

import (
	"context"
	"fmt"
	"time"

	"hypercare/internal/models"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// PgvectorIndex stores vectors in Postgres using the pgvector extension.
// The <=> operator computes cosine distance; lower means more similar.
type PgvectorIndex struct {
	db *gorm.DB
}

func NewPgvectorIndex(db *gorm.DB) *PgvectorIndex {
	return &PgvectorIndex{db: db}
}

// EnsureNamespace is a no-op for Postgres: namespaces are just a column value
// and rows appear on first store.
func (p *PgvectorIndex) EnsureNamespace(ctx context.Context, chatbotID string) error {
	return nil
}

func (p *PgvectorIndex) Store(ctx context.Context, chatbotID, documentID string, chunks []string, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, models.ErrEmbeddingFailed
	}

	namespace := NamespaceName(chatbotID)
	ids := make([]string, len(chunks))
	items := make([]*models.VectorItem, len(chunks))
	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		items[i] = &models.VectorItem{
			ID:         ids[i],
			Namespace:  namespace,
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    chunk,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	if err := p.db.WithContext(ctx).Create(items).Error; err != nil {
		return nil, fmt.Errorf("%w: store vectors: %v", models.ErrStoreUnavailable, err)
	}
	return ids, nil
}

// pgvectorMatch is the raw scan target for the similarity query.
type pgvectorMatch struct {
	Content    string
	DocumentID string
	ChunkIndex int
	CreatedAt  time.Time
	Distance   float64
}

func (p *PgvectorIndex) Query(ctx context.Context, chatbotID string, vector []float32, k int) ([]Match, error) {
	count, err := p.Count(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(vector)
	var rows []pgvectorMatch

	// Raw SQL: GORM has no native support for the <=> vector operator.
	err = p.db.WithContext(ctx).Raw(`
		SELECT content, document_id, chunk_index, created_at,
		       embedding <=> ? AS distance
		FROM vector_items
		WHERE namespace = ?
		ORDER BY embedding <=> ?
		LIMIT ?
	`, vec, NamespaceName(chatbotID), vec, k).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", models.ErrStoreUnavailable, err)
	}

	matches := make([]Match, len(rows))
	for i, row := range rows {
		matches[i] = Match{
			Content: row.Content,
			Metadata: models.ChunkMetadata{
				DocumentID: row.DocumentID,
				ChunkIndex: row.ChunkIndex,
				Timestamp:  row.CreatedAt.UTC().Format(time.RFC3339),
			},
			Distance: row.Distance,
		}
	}
	return matches, nil
}

func (p *PgvectorIndex) Delete(ctx context.Context, chatbotID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := p.db.WithContext(ctx).
		Where("namespace = ? AND id IN ?", NamespaceName(chatbotID), ids).
		Delete(&models.VectorItem{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete vectors: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *PgvectorIndex) DeleteNamespace(ctx context.Context, chatbotID string) error {
	err := p.db.WithContext(ctx).
		Where("namespace = ?", NamespaceName(chatbotID)).
		Delete(&models.VectorItem{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete namespace: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *PgvectorIndex) Count(ctx context.Context, chatbotID string) (int, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&models.VectorItem{}).
		Where("namespace = ?", NamespaceName(chatbotID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: count namespace: %v", models.ErrStoreUnavailable, err)
	}
	return int(count), nil
}
