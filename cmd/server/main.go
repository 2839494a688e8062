package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hypercare/internal/anthropic"
	"hypercare/internal/api"
	"hypercare/internal/config"
	"hypercare/internal/db"
	"hypercare/internal/embedding"
	"hypercare/internal/repository"
	"hypercare/internal/services"
	"hypercare/internal/telemetry"
	"hypercare/internal/vectorstore"
)

func main() {
	log.Println("🚀 Starting Hypercare chatbot backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Tracing first so every later init and request is traced.
	jaegerShutdown, err := telemetry.InitJaeger("hypercare", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	index, err := buildIndex(cfg, database)
	if err != nil {
		log.Fatalf("❌ Failed to initialize vector store: %v", err)
	}
	log.Printf("✓ Vector store initialized (%s)", cfg.VectorStore)

	embedder := embedding.NewDeterministic()

	anthropicClient := anthropic.NewClient(cfg.AnthropicAPIKey)
	if anthropicClient.Configured() {
		// A bad key should show up in the logs at startup, not on the first
		// chat turn. Chat still starts either way; streaming falls back.
		if err := anthropicClient.Ping(context.Background()); err != nil {
			log.Printf("⚠️  Anthropic API check failed: %v (chat will fall back if streaming fails)", err)
		} else {
			log.Println("✓ Anthropic client initialized")
		}
	} else {
		log.Println("⚠️  No Anthropic API key, chat will use the local fallback")
	}

	chatbotRepo := repository.NewChatbotRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)

	processor := services.NewProcessorService(
		docRepo,
		index,
		embedder,
		cfg.MaxChunkSize,
		cfg.ChunkOverlap,
		cfg.ProcessingWorkers,
		cfg.ProcessingQueueSize,
	)
	processor.Start()

	retriever := services.NewRetrieverService(index, embedder, cfg.RetrievalLimit, cfg.MinRelevance, cfg.MaxContextChars)
	chatService := services.NewChatService(
		docRepo,
		convRepo,
		retriever,
		services.NewAnthropicGenerator(anthropicClient),
		cfg.HistoryLimit,
		cfg.MaxTokens,
		cfg.FallbackDelay,
	)

	handler := api.NewHandler(chatbotRepo, docRepo, convRepo, processor, chatService, index, cfg.UploadDir)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: chat responses stream for as long as generation
		// takes.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Drain in-flight document processing before closing the database.
	processor.Shutdown()

	log.Println("✓ Server shutdown complete")
}

func buildIndex(cfg *config.Config, database *db.GormDB) (vectorstore.Index, error) {
	switch cfg.VectorStore {
	case "chroma":
		return vectorstore.NewChromaIndex(cfg.ChromaURL), nil
	case "pgvector":
		return vectorstore.NewPgvectorIndex(database.DB), nil
	case "memory":
		return vectorstore.NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}
