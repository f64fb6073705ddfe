package llm

import (
	"fmt"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"
)

// knownDimensions lists output sizes of models we ship defaults for.
var knownDimensions = map[string]int{
	"text-embedding-004":           768,
	"embedding-001":                768,
	string(openai.SmallEmbedding3): 1536,
	string(openai.LargeEmbedding3): 3072,
	string(openai.AdaEmbeddingV2):  1536,
}

// dimensionTracker pins a provider's vector length. Unknown models learn it
// from the first successful response; later responses must match.
type dimensionTracker struct {
	n atomic.Int64
}

func newDimensionTracker(model string) *dimensionTracker {
	d := &dimensionTracker{}
	d.n.Store(int64(knownDimensions[model]))
	return d
}

// get returns 0 until the length is known.
func (d *dimensionTracker) get() int { return int(d.n.Load()) }

func (d *dimensionTracker) check(vec []float32) error {
	got := int64(len(vec))
	if d.n.CompareAndSwap(0, got) {
		return nil
	}
	if want := d.n.Load(); want != got {
		return fmt.Errorf("dimension mismatch: got %d, want %d", got, want)
	}
	return nil
}
