package db

import (
	"fmt"
	"log"

	"hypercare/internal/config"
	"hypercare/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB wraps the GORM database instance
type GormDB struct {
	*gorm.DB
}

// NewGorm initializes the database connection and migrates the schema. The
// pgvector extension and vector_items table are only set up when the vector
// store actually runs on Postgres, so Chroma deployments don't need the
// extension installed.
func NewGorm(cfg *config.Config) (*GormDB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Chatbot{},
		&models.Document{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.VectorStore == "pgvector" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
		}
		if err := db.AutoMigrate(&models.VectorItem{}); err != nil {
			return nil, fmt.Errorf("failed to migrate vector items: %w", err)
		}
		// GORM has no built-in vector index support, so create it by hand.
		err = db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_vector_items_embedding
			ON vector_items USING ivfflat (embedding vector_cosine_ops)
		`).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create vector index: %w", err)
		}
	}

	log.Println("✓ Database connected and migrated")

	return &GormDB{db}, nil
}

// Close closes the database connection
func (db *GormDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
