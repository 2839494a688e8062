package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hypercare/internal/extractor"
	"hypercare/internal/models"
	"hypercare/internal/services"
	"hypercare/internal/vectorstore"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxUploadBytes = 32 << 20

// Handler carries the dependencies of every HTTP endpoint. Collaborators are
// the interfaces declared in this package, so handler tests can run against
// in-memory doubles.
type Handler struct {
	chatbots      ChatbotStore
	documents     DocumentStore
	conversations ConversationStore
	processor     Processor
	chat          ChatService
	index         vectorstore.Index
	uploadDir     string
}

func NewHandler(
	chatbots ChatbotStore,
	documents DocumentStore,
	conversations ConversationStore,
	processor Processor,
	chat ChatService,
	index vectorstore.Index,
	uploadDir string,
) *Handler {
	return &Handler{
		chatbots:      chatbots,
		documents:     documents,
		conversations: conversations,
		processor:     processor,
		chat:          chat,
		index:         index,
		uploadDir:     uploadDir,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Chatbot admin handlers

func (h *Handler) CreateChatbot(w http.ResponseWriter, r *http.Request) {
	var create models.ChatbotCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(create.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	created, err := h.chatbots.Create(r.Context(), &create)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListChatbots(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			limit = parsed
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			offset = parsed
		}
	}

	chatbots, err := h.chatbots.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chatbots": chatbots,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) GetChatbot(w http.ResponseWriter, r *http.Request) {
	chatbot, err := h.chatbots.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, chatbot)
}

func (h *Handler) UpdateChatbot(w http.ResponseWriter, r *http.Request) {
	var update models.ChatbotUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.chatbots.Update(r.Context(), mux.Vars(r)["id"], &update)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteChatbot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.chatbots.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	// The record is gone; a namespace cleanup failure only leaves orphaned
	// vectors behind, which no query can reach.
	if err := h.index.DeleteNamespace(r.Context(), id); err != nil {
		log.Printf("⚠️  Failed to delete vector namespace for chatbot %s: %v", id, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetChatbotStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.chatbots.GetByID(r.Context(), id); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	stats, err := h.conversations.Stats(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Document admin handlers

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	chatbotID := mux.Vars(r)["id"]

	if _, err := h.chatbots.GetByID(r.Context(), chatbotID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !extractor.SupportedExtensions[ext] {
		http.Error(w, models.ErrUnsupportedFileType.Error()+": "+ext, http.StatusBadRequest)
		return
	}

	// Stored under a generated name so uploads can never collide or escape
	// the upload directory.
	storedPath := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	dst, err := os.Create(storedPath)
	if err != nil {
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(storedPath)
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	doc, err := h.documents.Create(r.Context(), &models.Document{
		ChatbotID: chatbotID,
		Filename:  header.Filename,
		FileType:  ext,
		FilePath:  storedPath,
		FileSize:  size,
	})
	if err != nil {
		os.Remove(storedPath)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.processor.SubmitJob(services.ProcessingJob{DocumentID: doc.ID}); err != nil {
		// The record and file exist; processing can be retried via reprocess.
		log.Printf("⚠️  Failed to queue document %s: %v", doc.ID, err)
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	chatbotID := mux.Vars(r)["id"]

	if _, err := h.chatbots.GetByID(r.Context(), chatbotID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	documents, err := h.documents.ListByChatbot(r.Context(), chatbotID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": documents,
		"queued":    h.processor.QueueLength(),
	})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docId"]

	doc, err := h.documents.GetByID(r.Context(), docID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	if len(doc.VectorIDs) > 0 {
		if err := h.index.Delete(r.Context(), doc.ChatbotID, doc.VectorIDs); err != nil {
			http.Error(w, "failed to delete document vectors: "+err.Error(), http.StatusBadGateway)
			return
		}
	}
	if err := h.documents.Delete(r.Context(), docID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Failed to remove stored file %s: %v", doc.FilePath, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReprocessDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docId"]

	if err := h.processor.Reprocess(r.Context(), docID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reprocessed"})
}

// Public chat handlers

func (h *Handler) GetChatConfig(w http.ResponseWriter, r *http.Request) {
	chatbot, err := h.chatbots.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":            chatbot.Name,
		"welcome_message": chatbot.WelcomeMessage,
		"is_active":       chatbot.IsActive,
		"config":          chatbot.Config,
	})
}

func (h *Handler) StartChatSession(w http.ResponseWriter, r *http.Request) {
	chatbot, err := h.chatbots.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if !chatbot.IsActive {
		http.Error(w, "chatbot is not active", http.StatusForbidden)
		return
	}

	sessionID := uuid.NewString()
	conversation, err := h.conversations.Create(r.Context(), chatbot.ID, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":      sessionID,
		"conversation_id": conversation.ID,
		"welcome_message": chatbot.WelcomeMessage,
	})
}

type chatMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// SendChatMessage streams the reply as Server-Sent Events. Each event is one
// JSON StreamEvent on a data line; the stream ends with a done event.
func (h *Handler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	chatbot, err := h.chatbots.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if !chatbot.IsActive {
		http.Error(w, "chatbot is not active", http.StatusForbidden)
		return
	}

	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "conversation_id and message are required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(event models.StreamEvent) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.chat.ProcessMessage(r.Context(), chatbot, req.ConversationID, req.Message, emit); err != nil {
		log.Printf("⚠️  Chat turn failed for chatbot %s: %v", chatbot.ID, err)
		// Best effort: the connection may already be gone.
		emit(models.StreamEvent{Type: models.StreamEventError, Error: "message processing failed"})
	}
}

func (h *Handler) EndChatSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}
	if err := h.conversations.End(r.Context(), req.ConversationID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, map[string]any{"ended_at": now})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrChatbotNotFound), errors.Is(err, models.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
