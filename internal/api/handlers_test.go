package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hypercare/internal/models"
	"hypercare/internal/services"
	"hypercare/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatbots struct {
	bot *models.Chatbot
}

func (s *stubChatbots) Create(ctx context.Context, create *models.ChatbotCreate) (*models.Chatbot, error) {
	return &models.Chatbot{ID: "bot-1", Name: create.Name, Slug: "test-bot", IsActive: true}, nil
}
func (s *stubChatbots) GetByID(ctx context.Context, id string) (*models.Chatbot, error) {
	if s.bot != nil && s.bot.ID == id {
		return s.bot, nil
	}
	return nil, models.ErrChatbotNotFound
}
func (s *stubChatbots) GetBySlug(ctx context.Context, slug string) (*models.Chatbot, error) {
	if s.bot != nil && s.bot.Slug == slug {
		return s.bot, nil
	}
	return nil, models.ErrChatbotNotFound
}
func (s *stubChatbots) List(ctx context.Context, limit, offset int) ([]*models.Chatbot, error) {
	if s.bot == nil {
		return nil, nil
	}
	return []*models.Chatbot{s.bot}, nil
}
func (s *stubChatbots) Update(ctx context.Context, id string, update *models.ChatbotUpdate) (*models.Chatbot, error) {
	return s.GetByID(ctx, id)
}
func (s *stubChatbots) Delete(ctx context.Context, id string) error { return nil }

type stubDocuments struct {
	created []*models.Document
}

func (s *stubDocuments) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	doc.ID = "doc-1"
	s.created = append(s.created, doc)
	return doc, nil
}
func (s *stubDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	for _, d := range s.created {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, models.ErrDocumentNotFound
}
func (s *stubDocuments) ListByChatbot(ctx context.Context, chatbotID string) ([]*models.Document, error) {
	return s.created, nil
}
func (s *stubDocuments) Delete(ctx context.Context, id string) error { return nil }

type stubConversations struct{}

func (stubConversations) Create(ctx context.Context, chatbotID, sessionID string) (*models.Conversation, error) {
	return &models.Conversation{ID: "conv-1", ChatbotID: chatbotID, SessionID: sessionID}, nil
}
func (stubConversations) End(ctx context.Context, conversationID string) error { return nil }
func (stubConversations) Stats(ctx context.Context, chatbotID string) (*models.ChatbotStats, error) {
	return &models.ChatbotStats{TotalConversations: 2, TotalMessages: 10}, nil
}

type stubProcessor struct {
	submitted []services.ProcessingJob
}

func (s *stubProcessor) SubmitJob(job services.ProcessingJob) error {
	s.submitted = append(s.submitted, job)
	return nil
}
func (s *stubProcessor) Reprocess(ctx context.Context, documentID string) error { return nil }
func (s *stubProcessor) QueueLength() int                                       { return len(s.submitted) }

// scriptedChat plays back a fixed event sequence through emit.
type scriptedChat struct {
	events     []models.StreamEvent
	gotMessage string
	gotChatbot string
	gotConvID  string
}

func (s *scriptedChat) ProcessMessage(ctx context.Context, chatbot *models.Chatbot, conversationID, message string, emit services.EmitFunc) error {
	s.gotChatbot = chatbot.ID
	s.gotConvID = conversationID
	s.gotMessage = message
	for _, e := range s.events {
		if err := emit(e); err != nil {
			return err
		}
	}
	return nil
}

func testHandler(t *testing.T, chat ChatService) (*Handler, *stubChatbots, *stubDocuments, *stubProcessor) {
	t.Helper()
	chatbots := &stubChatbots{bot: &models.Chatbot{
		ID: "bot-1", Name: "Test Bot", Slug: "test-bot", IsActive: true,
		WelcomeMessage: "Hi, how can I help?",
	}}
	documents := &stubDocuments{}
	processor := &stubProcessor{}
	h := NewHandler(chatbots, documents, stubConversations{}, processor, chat, vectorstore.NewMemoryIndex(), t.TempDir())
	return h, chatbots, documents, processor
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadDocument_AcceptsSupportedFile(t *testing.T) {
	h, _, documents, processor := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	body, contentType := multipartBody(t, "faq.txt", "Q: hours?\nA: 9 to 5.")
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chatbots/bot-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, documents.created, 1)
	assert.Equal(t, "faq.txt", documents.created[0].Filename)
	assert.Equal(t, ".txt", documents.created[0].FileType)

	require.Len(t, processor.submitted, 1)
	assert.Equal(t, "doc-1", processor.submitted[0].DocumentID)
}

func TestUploadDocument_RejectsUnsupportedExtension(t *testing.T) {
	h, _, documents, processor := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	body, contentType := multipartBody(t, "malware.exe", "binary")
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chatbots/bot-1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, documents.created)
	assert.Empty(t, processor.submitted)
}

func TestUploadDocument_UnknownChatbot(t *testing.T) {
	h, _, _, _ := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	body, contentType := multipartBody(t, "faq.txt", "content")
	req := httptest.NewRequest(http.MethodPost, "/api/admin/chatbots/no-such-bot/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetChatConfig(t *testing.T) {
	h, _, _, _ := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/test-bot/config", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Test Bot", resp["name"])
	assert.Equal(t, "Hi, how can I help?", resp["welcome_message"])
}

func TestStartChatSession(t *testing.T) {
	h, _, _, _ := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/test-bot/session", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "conv-1", resp["conversation_id"])
	assert.NotEmpty(t, resp["session_id"])
}

func TestStartChatSession_InactiveChatbot(t *testing.T) {
	h, chatbots, _, _ := testHandler(t, &scriptedChat{})
	chatbots.bot.IsActive = false
	router := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/test-bot/session", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendChatMessage_StreamsSSE(t *testing.T) {
	chat := &scriptedChat{events: []models.StreamEvent{
		{Type: models.StreamEventContent, Content: "Hello "},
		{Type: models.StreamEventContent, Content: "there"},
		{Type: models.StreamEventMetadata, DocumentsUsed: 1},
		{Type: models.StreamEventDone},
	}}
	h, _, _, _ := testHandler(t, chat)
	router := SetupRoutes(h)

	payload := `{"conversation_id":"conv-1","message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/test-bot/message", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bot-1", chat.gotChatbot)
	assert.Equal(t, "conv-1", chat.gotConvID)
	assert.Equal(t, "hi", chat.gotMessage)

	var types []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event models.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		types = append(types, event.Type)
	}
	assert.Equal(t, []string{"content", "content", "metadata", "done"}, types)
}

func TestSendChatMessage_MissingFields(t *testing.T) {
	h, _, _, _ := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/test-bot/message", strings.NewReader(`{"message":""}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _, _, _ := testHandler(t, &scriptedChat{})
	router := SetupRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
