package retrieval

import (
	"context"
	"fmt"
	"sync"
)

// mapEmbedder returns fixed vectors per text and counts provider calls.
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error
	calls   map[string]int
	dims    int
}

func newMapEmbedder(vectors map[string][]float32) *mapEmbedder {
	return &mapEmbedder{vectors: vectors, errs: map[string]error{}, calls: map[string]int{}}
}

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[text]++
	if err := m.errs[text]; err != nil {
		return nil, err
	}
	v, ok := m.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (m *mapEmbedder) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mapEmbedder) Dimensions() int { return m.dims }

func (m *mapEmbedder) ModelName() string { return "map" }
