package retrieval

import (
	"math"
	"sort"

	"github.com/markdave123-py/docsense/internal/models"
)

// Policy decides which candidates are returned.
// Only scores strictly above MinSimilarity are kept, at most TopK of them.
type Policy struct {
	MinSimilarity float64
	TopK          int
}

func DefaultPolicy() Policy {
	return Policy{MinSimilarity: 0.3, TopK: 3}
}

// Rank scores candidates by cosine similarity to query and returns the best
// TopK above the threshold, highest first. Equal scores keep candidate order.
// Candidates whose dimension differs from the query are skipped.
func Rank(query []float32, candidates []models.EmbeddedChunk, p Policy) []models.RankedResult {
	out := make([]models.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			continue
		}
		score := Cosine(query, c.Vector)
		if score > p.MinSimilarity {
			out = append(out, models.RankedResult{Chunk: c.Chunk, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if p.TopK > 0 && len(out) > p.TopK {
		out = out[:p.TopK]
	}
	return out
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero norm
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push parallel vectors just past 1
	return math.Max(-1, math.Min(1, s))
}
