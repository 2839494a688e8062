package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"hypercare/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: validate origin against the chatbot's allowed domains
		return true
	},
}

type wsClientMessage struct {
	Message string `json:"message"`
}

// HandleChatWebSocket serves the chat widget over a WebSocket. One connection
// is one session: a conversation is created on connect, each client text
// frame is a user message, and every reply arrives as the same StreamEvent
// JSON the SSE endpoint emits.
func (h *Handler) HandleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	chatbot, err := h.chatbots.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if !chatbot.IsActive {
		http.Error(w, "chatbot is not active", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	conversation, err := h.conversations.Create(r.Context(), chatbot.ID, sessionID)
	if err != nil {
		conn.WriteJSON(models.StreamEvent{Type: models.StreamEventError, Error: "failed to start session"})
		return
	}
	defer func() {
		if err := h.conversations.End(r.Context(), conversation.ID); err != nil {
			log.Printf("⚠️  Failed to end conversation %s: %v", conversation.ID, err)
		}
	}()

	// Welcome frame mirrors the session endpoint's response.
	conn.WriteJSON(map[string]any{
		"type":            "session",
		"session_id":      sessionID,
		"conversation_id": conversation.ID,
		"welcome_message": chatbot.WelcomeMessage,
	})

	// Gorilla allows one concurrent writer per connection.
	var writeMu sync.Mutex
	emit := func(event models.StreamEvent) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(event)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || strings.TrimSpace(msg.Message) == "" {
			emit(models.StreamEvent{Type: models.StreamEventError, Error: "expected {\"message\": \"...\"}"})
			continue
		}

		if err := h.chat.ProcessMessage(r.Context(), chatbot, conversation.ID, msg.Message, emit); err != nil {
			log.Printf("⚠️  WebSocket chat turn failed for chatbot %s: %v", chatbot.ID, err)
			if emitErr := emit(models.StreamEvent{Type: models.StreamEventError, Error: "message processing failed"}); emitErr != nil {
				return
			}
		}
	}
}
