package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Anthropic API key for response generation. Empty is allowed: the chat
	// pipeline then serves every request through the fallback branch.
	AnthropicAPIKey string

	ServerPort string
	ServerHost string

	UploadDir string

	// Vector store selection: "chroma", "pgvector" or "memory".
	VectorStore string
	ChromaURL   string

	// Processing pipeline
	ProcessingWorkers   int
	ProcessingQueueSize int
	MaxChunkSize        int
	ChunkOverlap        int

	// Retrieval
	RetrievalLimit int
	// MinRelevance was carried over from the reference deployment and has
	// never been calibrated against a real embedding distribution. Tune per
	// deployment; do not treat the default as meaningful.
	MinRelevance    float64
	MaxContextChars int

	// Chat
	HistoryLimit  int
	MaxTokens     int
	FallbackDelay time.Duration

	// Observability
	JaegerEndpoint string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "hypercare"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		ServerPort: getEnv("SERVER_PORT", "3050"),
		ServerHost: getEnv("SERVER_HOST", "localhost"),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		VectorStore: getEnv("VECTOR_STORE", "chroma"),
		ChromaURL:   getEnv("CHROMA_URL", "http://localhost:3052"),

		ProcessingWorkers:   getEnvInt("PROCESSING_WORKERS", 3),
		ProcessingQueueSize: getEnvInt("PROCESSING_QUEUE_SIZE", 100),
		MaxChunkSize:        getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 100),

		RetrievalLimit:  getEnvInt("RETRIEVAL_LIMIT", 3),
		MinRelevance:    getEnvFloat("MIN_RELEVANCE", 0.0005),
		MaxContextChars: getEnvInt("MAX_CONTEXT_CHARS", 8000),

		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 10),
		MaxTokens:     getEnvInt("MAX_TOKENS", 4096),
		FallbackDelay: time.Duration(getEnvInt("FALLBACK_DELAY_MS", 50)) * time.Millisecond,

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	switch cfg.VectorStore {
	case "chroma", "pgvector", "memory":
	default:
		return nil, fmt.Errorf("invalid VECTOR_STORE %q (want chroma, pgvector or memory)", cfg.VectorStore)
	}

	return cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}
