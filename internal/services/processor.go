package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"hypercare/internal/chunker"
	"hypercare/internal/embedding"
	"hypercare/internal/extractor"
	"hypercare/internal/middleware"
	"hypercare/internal/models"
	"hypercare/internal/vectorstore"

	"go.opentelemetry.io/otel/attribute"
)

// ProcessingJob asks the worker pool to run the ingest pipeline for one
// document.
type ProcessingJob struct {
	DocumentID string
}

// ProcessorServiceImpl runs the document ingest pipeline — extract, chunk,
// embed, store — on a fixed worker pool. Uploads submit a job and return
// immediately; workers update the document record when the pipeline finishes.
type ProcessorServiceImpl struct {
	docRepo  DocumentRepository
	index    vectorstore.Index
	embedder embedding.Embedder

	maxChunkSize int
	chunkOverlap int

	jobs    chan ProcessingJob
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewProcessorService(
	docRepo DocumentRepository,
	index vectorstore.Index,
	embedder embedding.Embedder,
	maxChunkSize, chunkOverlap int,
	numWorkers, queueSize int,
) *ProcessorServiceImpl {
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorServiceImpl{
		docRepo:      docRepo,
		index:        index,
		embedder:     embedder,
		maxChunkSize: maxChunkSize,
		chunkOverlap: chunkOverlap,
		jobs:         make(chan ProcessingJob, queueSize),
		workers:      numWorkers,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start spawns the worker goroutines.
func (s *ProcessorServiceImpl) Start() {
	log.Printf("🔧 Starting document processing pool with %d workers", s.workers)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *ProcessorServiceImpl) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.jobs:
			if err := s.Process(context.Background(), job.DocumentID); err != nil {
				log.Printf("  Worker %d: document %s failed: %v", id, job.DocumentID, err)
			}
		}
	}
}

// SubmitJob queues a document for processing. Blocks when the queue is full
// (backpressure) and fails once the service is shutting down.
func (s *ProcessorServiceImpl) SubmitJob(job ProcessingJob) error {
	// Checked first so a stopped processor rejects deterministically even
	// when the queue still has capacity.
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("processor is shutting down")
	default:
	}

	select {
	case s.jobs <- job:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("processor is shutting down")
	}
}

// Process runs the full pipeline for one document. A failure to extract or
// embed still marks the document processed with an empty vector list — the
// document is retryable via Reprocess and never blocks other documents. Only
// a store failure leaves the record untouched, since no vectors exist yet.
func (s *ProcessorServiceImpl) Process(ctx context.Context, documentID string) error {
	ctx, span := middleware.StartSpan(ctx, "Processor.Process",
		attribute.String("document.id", documentID),
	)
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Processed() {
		log.Printf("Document %s already processed, skipping", documentID)
		return nil
	}

	chunks, err := s.extractChunks(doc)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		log.Printf("⚠️  Document %s: %v (marking processed with no vectors)", documentID, err)
		return s.docRepo.MarkProcessed(ctx, documentID, nil)
	}
	if len(chunks) == 0 {
		log.Printf("Document %s extracted no text", documentID)
		return s.docRepo.MarkProcessed(ctx, documentID, nil)
	}

	vectors, err := s.embedder.Embed(chunks)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", models.ErrEmbeddingFailed, err)
		middleware.AddSpanError(ctx, wrapped)
		log.Printf("⚠️  Document %s: %v (marking processed with no vectors)", documentID, wrapped)
		return s.docRepo.MarkProcessed(ctx, documentID, nil)
	}

	if err := s.index.EnsureNamespace(ctx, doc.ChatbotID); err != nil {
		middleware.AddSpanError(ctx, err)
		return fmt.Errorf("document %s: ensure namespace: %w", documentID, err)
	}
	vectorIDs, err := s.index.Store(ctx, doc.ChatbotID, doc.ID, chunks, vectors)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return fmt.Errorf("document %s: store vectors: %w", documentID, err)
	}

	if err := s.docRepo.MarkProcessed(ctx, documentID, vectorIDs); err != nil {
		return err
	}

	middleware.AddSpanEvent(ctx, "document_processed",
		attribute.Int("chunks", len(chunks)),
	)
	log.Printf("✅ Document %s processed: %d chunks indexed", documentID, len(chunks))
	return nil
}

// Reprocess deletes the document's existing vectors before rerunning the
// pipeline, so a rerun never leaves duplicates or orphans behind.
func (s *ProcessorServiceImpl) Reprocess(ctx context.Context, documentID string) error {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if len(doc.VectorIDs) > 0 {
		if err := s.index.Delete(ctx, doc.ChatbotID, doc.VectorIDs); err != nil {
			return fmt.Errorf("document %s: delete stale vectors: %w", documentID, err)
		}
	}
	if err := s.docRepo.ResetProcessing(ctx, documentID); err != nil {
		return err
	}
	return s.Process(ctx, documentID)
}

// extractChunks reads the stored file and turns it into chunk texts.
func (s *ProcessorServiceImpl) extractChunks(doc *models.Document) ([]string, error) {
	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrExtractionFailed, doc.FilePath, err)
	}

	text, err := extractor.Extract(data, doc.FileType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	return chunker.Chunk(text, s.maxChunkSize, s.chunkOverlap), nil
}

// Shutdown stops accepting jobs and waits for in-flight documents to finish.
// The jobs channel is never closed, so a SubmitJob racing Shutdown either
// enqueues or gets an error — it cannot panic. Jobs still queued when the
// workers exit stay unprocessed; their documents remain pending and are
// picked up again via reprocessing.
func (s *ProcessorServiceImpl) Shutdown() {
	s.cancel()
	s.wg.Wait()
	log.Println("✓ Document processor shutdown complete")
}

// QueueLength reports pending jobs, for monitoring.
func (s *ProcessorServiceImpl) QueueLength() int {
	return len(s.jobs)
}
