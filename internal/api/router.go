package api

import (
	"net/http"

	"hypercare/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Tracing first so every later middleware and handler runs inside the
	// request span, recovery next so panics are caught with the span live.
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	admin := r.PathPrefix("/api/admin").Subrouter()

	admin.HandleFunc("/chatbots", h.CreateChatbot).Methods("POST")
	admin.HandleFunc("/chatbots", h.ListChatbots).Methods("GET")
	admin.HandleFunc("/chatbots/{id}", h.GetChatbot).Methods("GET")
	admin.HandleFunc("/chatbots/{id}", h.UpdateChatbot).Methods("PUT")
	admin.HandleFunc("/chatbots/{id}", h.DeleteChatbot).Methods("DELETE")
	admin.HandleFunc("/chatbots/{id}/stats", h.GetChatbotStats).Methods("GET")

	admin.HandleFunc("/chatbots/{id}/documents", h.UploadDocument).Methods("POST")
	admin.HandleFunc("/chatbots/{id}/documents", h.ListDocuments).Methods("GET")
	admin.HandleFunc("/chatbots/{id}/documents/{docId}", h.DeleteDocument).Methods("DELETE")
	admin.HandleFunc("/chatbots/{id}/documents/{docId}/reprocess", h.ReprocessDocument).Methods("POST")

	chat := r.PathPrefix("/api/chat").Subrouter()

	chat.HandleFunc("/{slug}/config", h.GetChatConfig).Methods("GET")
	chat.HandleFunc("/{slug}/session", h.StartChatSession).Methods("POST")
	chat.HandleFunc("/{slug}/message", h.SendChatMessage).Methods("POST")
	chat.HandleFunc("/{slug}/session/end", h.EndChatSession).Methods("POST")

	// WebSocket chat transport, same event protocol as the SSE endpoint.
	r.HandleFunc("/ws/chat/{slug}", h.HandleChatWebSocket)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
