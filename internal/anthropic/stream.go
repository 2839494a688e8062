package anthropic

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Stream is a forward-only, single-pass reader over a server-sent-event token
// stream. Recv returns text deltas in arrival order and io.EOF once the
// message completes.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	tokensUsed int
	done       bool
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: body, scanner: scanner}
}

// Recv returns the next text delta. Events that carry no text (message_start,
// content_block boundaries, pings) are skipped transparently.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return "", fmt.Errorf("failed to decode stream event: %w", err)
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				return event.Delta.Text, nil
			}
		case "message_delta":
			if event.Usage.OutputTokens > 0 {
				s.tokensUsed = event.Usage.OutputTokens
			}
		case "message_stop":
			s.done = true
			return "", io.EOF
		case "error":
			if event.Error != nil {
				return "", fmt.Errorf("stream error: %s", event.Error.Message)
			}
			return "", fmt.Errorf("stream error")
		}
		// Other event types are ignorable per the wire contract.
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read failed: %w", err)
	}
	// Connection ended without a message_stop event.
	s.done = true
	return "", io.EOF
}

// TokensUsed reports the output token count, available once the final
// message_delta event has been consumed.
func (s *Stream) TokensUsed() int {
	return s.tokensUsed
}

func (s *Stream) Close() error {
	return s.body.Close()
}
