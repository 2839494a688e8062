package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hypercare/internal/anthropic"
	"hypercare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(srv *httptest.Server) *AnthropicGenerator {
	client := anthropic.NewClient("test-key")
	client.BaseURL = srv.URL
	return NewAnthropicGenerator(client)
}

func TestAnthropicGenerator_OpenFailureWrapsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"api_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	stream, err := newTestGenerator(srv).Stream(context.Background(), "sys", nil, "hi", 256)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrGenerationFailed)
	assert.Nil(t, stream)
}

func TestAnthropicGenerator_StreamsHistoryAndTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"ok"}}`+"\n\n")
		io.WriteString(w, `data: {"type":"message_stop"}`+"\n\n")
	}))
	defer srv.Close()

	history := []models.ChatMessage{{Role: "user", Content: "earlier question"}}
	stream, err := newTestGenerator(srv).Stream(context.Background(), "sys", history, "hi", 256)
	require.NoError(t, err)
	defer stream.Close()

	token, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", token)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}
