package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/markdave123-py/docsense/internal/core"
)

// OpenAIEmbedder talks to any OpenAI-compatible /embeddings endpoint,
// including local sentence-transformers servers.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	maxTokens int
	dims      *dimensionTracker
}

func NewOpenAIEmbedder(apiKey, baseURL, model string, maxTokens int) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxTokens: maxTokens,
		dims:      newDimensionTracker(model),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{truncateTokens(text, e.maxTokens)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: empty embedding")
	}
	if err := e.dims.check(resp.Data[0].Embedding); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions is 0 until the first vector arrives for a model without a known size.
func (e *OpenAIEmbedder) Dimensions() int { return e.dims.get() }

func (e *OpenAIEmbedder) ModelName() string { return e.model }

var _ core.EmbeddingProvider = (*OpenAIEmbedder)(nil)
