package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// VectorItem is the pgvector-backed row for one indexed chunk. Item ids are
// UUIDs generated at store time (not KSUIDs: ids here only need uniqueness,
// and the vector store contract treats them as opaque). Namespace scoping
// replaces Chroma's per-chatbot collections.
type VectorItem struct {
	ID         string          `json:"id" gorm:"type:char(36);primaryKey"`
	Namespace  string          `json:"namespace" gorm:"type:varchar(120);not null;index"`
	DocumentID string          `json:"document_id" gorm:"type:char(27);not null;index"`
	ChunkIndex int             `json:"chunk_index" gorm:"not null"`
	Content    string          `json:"content" gorm:"type:text;not null"`
	Embedding  pgvector.Vector `json:"embedding" gorm:"type:vector(1536);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}
