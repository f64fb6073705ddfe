package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/models"
)

var (
	ErrQuotaExceeded = errors.New("API quota exceeded, try again later or check your API limits")
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrEmptyAnswer   = errors.New("no answer generated, try rephrasing the question")
)

const answerInstructions = `Instructions:
1. Provide a clear and concise answer based ONLY on the information provided in the context
2. If the context doesn't contain enough information to fully answer the question, say so
3. Use bullet points or numbered lists when appropriate
4. Include specific details and examples from the context to support your answer

Your answer:`

// Synthesizer turns ranked chunks into a prose answer. Chunk text is passed through unmodified.
type Synthesizer struct {
	llm core.LLMProvider
}

func NewSynthesizer(p core.LLMProvider) *Synthesizer {
	return &Synthesizer{llm: p}
}

func (s *Synthesizer) Answer(ctx context.Context, question string, results []models.RankedResult) (string, error) {
	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk.Text
	}

	answer, err := s.llm.Generate(ctx, "", BuildPrompt(question, chunks))
	if err != nil {
		return "", classifyError(err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// BuildPrompt numbers each context chunk and appends the answering instructions.
func BuildPrompt(question string, chunks []string) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("Context %d:\n%s", i+1, c)
	}
	return fmt.Sprintf("Based on the following context from a document, please answer this question: \"%s\"\n\n%s\n\n%s",
		question, strings.Join(blocks, "\n\n"), answerInstructions)
}

func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(msg, "api key not valid"), strings.Contains(msg, "invalid api key"):
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	default:
		return fmt.Errorf("answer synthesis: %w", err)
	}
}
