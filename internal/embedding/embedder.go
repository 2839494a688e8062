// Package embedding maps chunk and query text to fixed-dimension unit
// vectors. The production interface is Embedder; the shipped implementation
// is a deterministic stand-in that needs no ML backend, which keeps the whole
// retrieval path testable offline. A real embedding service can replace it
// behind the same contract.
package embedding

import (
	"crypto/md5"
	"crypto/sha256"
	"math"
	"strings"
)

// Dimension is the embedding width used across the whole system. Every stored
// vector and every query vector has exactly this many components.
const Dimension = 1536

// featureWords caps how many leading words contribute vocabulary features.
const featureWords = 100

// Embedder converts texts into L2-normalized vectors of length Dimension.
type Embedder interface {
	Embed(texts []string) ([][]float32, error)
	EmbedQuery(text string) ([]float32, error)
}

// Deterministic is a reproducible embedder: embed(t) is bit-identical across
// calls and processes, distinct texts produce distinct vectors, and texts
// sharing vocabulary land measurably closer than unrelated texts.
type Deterministic struct {
	dimension int
}

// NewDeterministic returns an embedder producing Dimension-wide vectors.
func NewDeterministic() *Deterministic {
	return &Deterministic{dimension: Dimension}
}

func (e *Deterministic) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *Deterministic) EmbedQuery(text string) ([]float32, error) {
	vectors, err := e.Embed([]string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Deterministic) embedOne(text string) []float32 {
	digest := sha256.Sum256([]byte(text))

	// Seed every dimension from the digest, modulated by a smooth function of
	// the dimension index so the 32-byte cycle doesn't impose low-order
	// periodicity on the vector.
	raw := make([]float64, e.dimension)
	for i := range raw {
		b := float64(digest[i%len(digest)])
		raw[i] = (b/255.0*2 - 1) * math.Cos(float64(i)*0.1)
	}

	// Vocabulary features: each leading word hashes to a target dimension and
	// nudges it by a small signed amount, so texts sharing words end up closer
	// than unrelated texts.
	words := strings.Fields(strings.ToLower(text))
	if len(words) > featureWords {
		words = words[:featureWords]
	}
	for _, word := range words {
		h := md5.Sum([]byte(word))
		idx := (int(h[0])*256 + int(h[1])) % e.dimension
		raw[idx] += (float64(h[2])/255.0 - 0.5) * 0.1
	}

	return normalize(raw)
}

// normalize L2-normalizes raw into float32. An exactly-zero vector is
// returned as-is rather than divided by zero.
func normalize(raw []float64) []float32 {
	var sum float64
	for _, v := range raw {
		sum += v * v
	}

	out := make([]float32, len(raw))
	if sum == 0 {
		return out
	}

	magnitude := math.Sqrt(sum)
	for i, v := range raw {
		out[i] = float32(v / magnitude)
	}
	return out
}
