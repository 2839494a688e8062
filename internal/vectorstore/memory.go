package vectorstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"hypercare/internal/models"

	"github.com/google/uuid"
)

// MemoryIndex is a brute-force in-memory Index. It backs local development
// and tests, and doubles as the reference behavior the remote stores are
// tested against.
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string][]Item
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{namespaces: make(map[string][]Item)}
}

func (m *MemoryIndex) EnsureNamespace(ctx context.Context, chatbotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.namespaces[chatbotID]; !ok {
		m.namespaces[chatbotID] = nil
	}
	return nil
}

func (m *MemoryIndex) Store(ctx context.Context, chatbotID, documentID string, chunks []string, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, models.ErrEmbeddingFailed
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, len(chunks))

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		m.namespaces[chatbotID] = append(m.namespaces[chatbotID], Item{
			ID:      ids[i],
			Vector:  vectors[i],
			Content: chunk,
			Metadata: models.ChunkMetadata{
				DocumentID: documentID,
				ChunkIndex: i,
				Timestamp:  now,
			},
		})
	}
	return ids, nil
}

func (m *MemoryIndex) Query(ctx context.Context, chatbotID string, vector []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.namespaces[chatbotID]
	if k > len(items) {
		k = len(items)
	}
	if k <= 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(items))
	for _, item := range items {
		matches = append(matches, Match{
			Content:  item.Content,
			Metadata: item.Metadata,
			Distance: cosineDistance(vector, item.Vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches[:k], nil
}

func (m *MemoryIndex) Delete(ctx context.Context, chatbotID string, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.namespaces[chatbotID]
	kept := items[:0]
	for _, item := range items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	m.namespaces[chatbotID] = kept
	return nil
}

func (m *MemoryIndex) DeleteNamespace(ctx context.Context, chatbotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, chatbotID)
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context, chatbotID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[chatbotID]), nil
}

// cosineDistance assumes unit vectors, so distance reduces to 1 - dot.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot
	if d < 0 {
		// Floating error can push identical vectors a hair below zero.
		d = 0
	}
	return d
}
