package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/docsense/internal/core"
)

// GenerationConfig holds sampling settings for answer synthesis.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.7, TopP: 0.8, TopK: 40, MaxOutputTokens: 1024}
}

type GeminiLLM struct {
	client    *genai.Client
	modelName string
	gen       GenerationConfig
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, gen GenerationConfig) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash-lite"
	}
	return &GeminiLLM{client: cl, modelName: modelName, gen: gen}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(g.gen.Temperature)
	m.SetTopP(g.gen.TopP)
	m.SetTopK(g.gen.TopK)
	m.SetMaxOutputTokens(g.gen.MaxOutputTokens)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
