package services

import (
	"context"
	"fmt"

	"hypercare/internal/anthropic"
	"hypercare/internal/models"
)

// AnthropicGenerator adapts the Anthropic client to the Generator contract,
// translating stored chat turns into the client's message shape.
type AnthropicGenerator struct {
	client *anthropic.Client
}

func NewAnthropicGenerator(client *anthropic.Client) *AnthropicGenerator {
	return &AnthropicGenerator{client: client}
}

func (g *AnthropicGenerator) Configured() bool {
	return g.client.Configured()
}

func (g *AnthropicGenerator) Stream(ctx context.Context, system string, history []models.ChatMessage, userMessage string, maxTokens int) (TokenStream, error) {
	messages := make([]anthropic.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	stream, err := g.client.StreamMessage(ctx, system, messages, userMessage, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	return stream, nil
}
