package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"hypercare/internal/models"

	"github.com/google/uuid"
)

// ChromaIndex talks to a ChromaDB server over its REST API. One collection
// per chatbot, named by NamespaceName. Embeddings are always supplied by the
// caller; the server-side embedding function is never used.
type ChromaIndex struct {
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	collections map[string]string // collection name -> server-side id
}

func NewChromaIndex(baseURL string) *ChromaIndex {
	return &ChromaIndex{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		collections: make(map[string]string),
	}
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaAddRequest struct {
	IDs        []string               `json:"ids"`
	Embeddings [][]float32            `json:"embeddings"`
	Documents  []string               `json:"documents"`
	Metadatas  []models.ChunkMetadata `json:"metadatas"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// chromaQueryResponse carries parallel arrays aligned by index, nested one
// level because the API supports multiple query embeddings per request.
type chromaQueryResponse struct {
	Documents [][]string               `json:"documents"`
	Metadatas [][]models.ChunkMetadata `json:"metadatas"`
	Distances [][]float64              `json:"distances"`
}

func (c *ChromaIndex) EnsureNamespace(ctx context.Context, chatbotID string) error {
	_, err := c.collectionID(ctx, chatbotID)
	return err
}

// collectionID resolves (and caches) the server-side collection id, creating
// the collection on first use.
func (c *ChromaIndex) collectionID(ctx context.Context, chatbotID string) (string, error) {
	name := NamespaceName(chatbotID)

	c.mu.Lock()
	id, ok := c.collections[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var col chromaCollection
	err := c.do(ctx, http.MethodPost, "/api/v1/collections", map[string]any{
		"name":          name,
		"get_or_create": true,
		"metadata":      map[string]any{"chatbotId": chatbotID},
	}, &col)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.collections[name] = col.ID
	c.mu.Unlock()
	return col.ID, nil
}

func (c *ChromaIndex) Store(ctx context.Context, chatbotID, documentID string, chunks []string, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, models.ErrEmbeddingFailed
	}

	colID, err := c.collectionID(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	req := chromaAddRequest{
		IDs:        make([]string, len(chunks)),
		Embeddings: vectors,
		Documents:  chunks,
		Metadatas:  make([]models.ChunkMetadata, len(chunks)),
	}
	for i := range chunks {
		req.IDs[i] = uuid.New().String()
		req.Metadatas[i] = models.ChunkMetadata{
			DocumentID: documentID,
			ChunkIndex: i,
			Timestamp:  now,
		}
	}

	path := fmt.Sprintf("/api/v1/collections/%s/add", colID)
	if err := c.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return nil, err
	}
	return req.IDs, nil
}

func (c *ChromaIndex) Query(ctx context.Context, chatbotID string, vector []float32, k int) ([]Match, error) {
	colID, err := c.collectionID(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	// Chroma errors when n_results exceeds the collection size, so clamp
	// before querying. An empty collection short-circuits to no matches.
	count, err := c.Count(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	req := chromaQueryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        k,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp chromaQueryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", colID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Documents) == 0 || len(resp.Documents[0]) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(resp.Documents[0]))
	for i, doc := range resp.Documents[0] {
		match := Match{Content: doc}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			match.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			match.Distance = resp.Distances[0][i]
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (c *ChromaIndex) Delete(ctx context.Context, chatbotID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	colID, err := c.collectionID(ctx, chatbotID)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/v1/collections/%s/delete", colID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"ids": ids}, nil)
}

func (c *ChromaIndex) DeleteNamespace(ctx context.Context, chatbotID string) error {
	name := NamespaceName(chatbotID)
	err := c.do(ctx, http.MethodDelete, "/api/v1/collections/"+name, nil, nil)

	c.mu.Lock()
	delete(c.collections, name)
	c.mu.Unlock()
	return err
}

func (c *ChromaIndex) Count(ctx context.Context, chatbotID string) (int, error) {
	colID, err := c.collectionID(ctx, chatbotID)
	if err != nil {
		return 0, err
	}
	var count int
	path := fmt.Sprintf("/api/v1/collections/%s/count", colID)
	if err := c.do(ctx, http.MethodGet, path, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// do sends one JSON request. Transport failures and 5xx responses map to
// models.ErrStoreUnavailable so callers can degrade instead of crashing.
func (c *ChromaIndex) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: chroma returned status %d", models.ErrStoreUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
