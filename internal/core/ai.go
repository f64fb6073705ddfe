package core

import "context"

// EmbeddingProvider maps text to a fixed-length vector. It must be
// deterministic for identical input.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimensions is the vector length, or 0 while it is not yet known.
	Dimensions() int
	ModelName() string
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
