// Package anthropic is a minimal client for the Anthropic messages API,
// covering exactly what the chat pipeline needs: streamed message creation.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-20241022"

	// apiVersion is the required API version header.
	apiVersion = "2023-06-01"
)

type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		Model:   defaultModel,
		// No client timeout: streamed responses are open-ended, cancellation
		// comes from the request context.
		client: &http.Client{},
	}
}

// Configured reports whether an API key is present. An unconfigured client
// drives the caller straight to its fallback path.
func (c *Client) Configured() bool {
	return c.APIKey != ""
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// streamEvent is the wire shape of one SSE data payload. Only text deltas and
// the output token count are interpreted; all other event types are ignored.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// StreamMessage opens a one-way token stream for the given prompt. The caller
// must Close the returned stream; cancelling ctx aborts it mid-flight.
func (c *Client) StreamMessage(ctx context.Context, system string, history []Message, userMessage string, maxTokens int) (*Stream, error) {
	req := messagesRequest{
		Model:       c.Model,
		System:      system,
		Messages:    append(append([]Message{}, history...), Message{Role: "user", Content: userMessage}),
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		Stream:      true,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return newStream(resp.Body), nil
}

// Ping verifies the API key against a lightweight endpoint without running
// inference.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
