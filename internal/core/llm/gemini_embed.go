package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/docsense/internal/core"
)

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	maxTokens int
	dims      *dimensionTracker
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, maxTokens int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, maxTokens: maxTokens, dims: newDimensionTracker(modelName)}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Embed embeds a single text, truncated to the token budget.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	em := g.client.EmbeddingModel(g.modelName)

	resp, err := em.EmbedContent(ctx, genai.Text(truncateTokens(text, g.maxTokens)))
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty embedding")
	}
	if err := g.dims.check(resp.Embedding.Values); err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return resp.Embedding.Values, nil
}

// Dimensions is 0 until the first vector arrives for a model without a known size.
func (g *GeminiEmbedder) Dimensions() int { return g.dims.get() }

func (g *GeminiEmbedder) ModelName() string { return g.modelName }

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
