package models

// Stream event types shared by the SSE and WebSocket chat transports. The
// fallback branch emits exactly the same event shapes as the real backend, so
// clients cannot tell from protocol shape alone which one produced the stream.
const (
	StreamEventContent  = "content"
	StreamEventMetadata = "metadata"
	StreamEventDone     = "done"
	StreamEventError    = "error"
)

// StreamEvent is one unit of incremental chat output.
type StreamEvent struct {
	Type              string            `json:"type"`
	Content           string            `json:"content,omitempty"`
	Error             string            `json:"error,omitempty"`
	DocumentsUsed     int               `json:"documentsUsed,omitempty"`
	RelevantDocuments []RelevantExcerpt `json:"relevantDocuments,omitempty"`
}

// RelevantExcerpt is the truncated view of a retrieved chunk reported in the
// metadata event.
type RelevantExcerpt struct {
	Content        string        `json:"content"`
	RelevanceScore float64       `json:"relevanceScore"`
	Metadata       ChunkMetadata `json:"metadata"`
}

// ChunkMetadata ties an indexed vector item back to its source document and
// original chunk position.
type ChunkMetadata struct {
	DocumentID string `json:"documentId"`
	ChunkIndex int    `json:"chunkIndex"`
	Timestamp  string `json:"timestamp"`
}

// RetrievalResult is one scored chunk returned by the retriever. Computed per
// query, never persisted.
type RetrievalResult struct {
	Content        string        `json:"content"`
	Metadata       ChunkMetadata `json:"metadata"`
	Distance       float64       `json:"distance"`
	RelevanceScore float64       `json:"relevanceScore"`
}
