package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Document is an uploaded file owned by one chatbot. The upload request only
// creates this record; extraction, chunking and embedding happen later in the
// background pipeline, which sets ProcessedAt and VectorIDs. A failed pipeline
// run still sets ProcessedAt (with an empty vector list) so documents never
// stay pending forever — reprocessing is the retry path.
type Document struct {
	ID          string         `json:"id" gorm:"type:char(27);primaryKey"`
	ChatbotID   string         `json:"chatbot_id" gorm:"type:char(27);not null;index"`
	Filename    string         `json:"filename" gorm:"type:text;not null"`
	FileType    string         `json:"file_type" gorm:"type:varchar(10);not null"`
	FilePath    string         `json:"-" gorm:"type:text;not null"`
	FileSize    int64          `json:"file_size" gorm:"not null"`
	UploadedAt  time.Time      `json:"uploaded_at" gorm:"column:uploaded_at;autoCreateTime"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty" gorm:"column:processed_at"`
	VectorIDs   []string       `json:"vector_ids" gorm:"type:jsonb;serializer:json;default:'[]'"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"column:deleted_at;index"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

// Processed reports whether the background pipeline has run for this document.
func (d *Document) Processed() bool {
	return d.ProcessedAt != nil
}
