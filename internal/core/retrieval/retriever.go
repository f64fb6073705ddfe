package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

var ErrEmptyQuestion = errors.New("question is empty")

type RetrieverConfig struct {
	Policy  Policy
	Workers int // concurrent chunk embeddings, default 8
	Logger  *slog.Logger
}

// Retriever finds the chunks of a loaded document most similar to a question.
type Retriever struct {
	embedder core.EmbeddingProvider
	policy   Policy
	workers  int
	logger   *slog.Logger
}

func NewRetriever(embedder core.EmbeddingProvider, cfg RetrieverConfig) *Retriever {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	policy := cfg.Policy
	if policy.TopK <= 0 {
		policy.TopK = DefaultPolicy().TopK
	}
	return &Retriever{embedder: embedder, policy: policy, workers: workers, logger: logger.OrDefault(cfg.Logger)}
}

func (r *Retriever) Policy() Policy { return r.policy }

// FindRelevant ranks chunks against question. A question that cannot be
// embedded fails the call; chunks that cannot be embedded are left out.
func (r *Retriever) FindRelevant(ctx context.Context, question string, chunks []models.Chunk) ([]models.RankedResult, error) {
	// embedded verbatim; whitespace only decides emptiness
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	qv, err := r.embedder.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, core.ErrEmbeddingFailure) {
			return nil, err
		}
		return nil, core.NewError(core.ErrEmbeddingFailure, "embed question", "", err)
	}

	vecs := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := r.embedder.Embed(gctx, c.Text)
			if err != nil {
				r.logger.Warn("chunk excluded from ranking", "ordinal", c.Ordinal, "error", err)
				return nil
			}
			vecs[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]models.EmbeddedChunk, 0, len(chunks))
	for i, c := range chunks {
		if vecs[i] == nil {
			continue
		}
		candidates = append(candidates, models.EmbeddedChunk{Chunk: c, Vector: vecs[i]})
	}

	results := Rank(qv, candidates, r.policy)
	r.logger.Debug("ranked chunks", "candidates", len(candidates), "results", len(results))
	return results, nil
}
