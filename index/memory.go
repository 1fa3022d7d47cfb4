package index

import (
	"context"
	"math"
	"sync"

	"github.com/Jatayu-u/Soap-notes-generation-RAG/models"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process store with exact brute-force cosine search.
type Memory struct {
	mu      sync.RWMutex
	vectors [][]float32
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors), nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = nil
	return nil
}

// Add stores L2-normalized copies of vectors. Ordinals must be appended in order.
func (m *Memory) Add(_ context.Context, offset int, docs []models.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return goerr.New("documents and vectors length mismatch", goerr.V("docs", len(docs)), goerr.V("vectors", len(vectors)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if offset != len(m.vectors) {
		return goerr.New("out of order add", goerr.V("offset", offset), goerr.V("stored", len(m.vectors)))
	}
	for i, v := range vectors {
		if len(m.vectors) > 0 && len(v) != len(m.vectors[0]) {
			return goerr.New("vector dimension mismatch",
				goerr.V("ordinal", offset+i), goerr.V("want", len(m.vectors[0])), goerr.V("got", len(v)))
		}
		m.vectors = append(m.vectors, normalize(v))
	}
	return nil
}

// Search scores every stored vector against vector and returns the best k.
// Equal scores keep insertion order.
func (m *Memory) Search(_ context.Context, vector []float32, k int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.vectors) > 0 && len(vector) != len(m.vectors[0]) {
		return nil, goerr.New("query dimension mismatch", goerr.V("want", len(m.vectors[0])), goerr.V("got", len(vector)))
	}

	q := normalize(vector)
	hits := make([]Hit, len(m.vectors))
	for i, v := range m.vectors {
		hits[i] = Hit{Ordinal: i, Score: dot(q, v)}
	}
	return normalizeHits(hits, len(m.vectors), k), nil
}

func (m *Memory) Close() error { return nil }

func normalize(v []float32) []float32 {
	norm := 0.0
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
