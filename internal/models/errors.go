package models

import "errors"

// Processing and retrieval failure taxonomy. Handlers and services branch on
// these with errors.Is; wrapped errors carry the document id and stage.
var (
	// ErrUnsupportedFileType is rejected at the upload boundary, before any
	// processing starts.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrUnsupportedFormat means the declared extension is outside the closed
	// set of extractable formats.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed means the file could not be parsed (corrupt file,
	// decoder failure). Non-fatal at the document level.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmbeddingFailed means vector generation failed for one or more chunks.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStoreUnavailable means the vector store could not be reached.
	// Retrieval degrades to "no relevant context" instead of propagating this.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrGenerationFailed means the generation backend failed before or during
	// streaming. The chat pipeline switches to the fallback branch.
	ErrGenerationFailed = errors.New("response generation failed")

	ErrDocumentNotFound = errors.New("document not found")
	ErrChatbotNotFound  = errors.New("chatbot not found")
)
