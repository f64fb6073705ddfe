package ingestion_engine

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsense/internal/models"
)

const (
	DefaultMinWords = 5
	DefaultMaxWords = 150
)

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// ChunkerConfig tunes chunk boundaries.
//
// MinWords: paragraphs and sub-chunks below this many words are noise and dropped.
// MaxWords: paragraphs above this many words are split on sentence boundaries.
// Workers:  paragraphs processed concurrently; 0 means unbounded.
type ChunkerConfig struct {
	MinWords int
	MaxWords int
	Workers  int
}

// Chunker splits normalized document text into deduplicated retrieval chunks.
type Chunker struct {
	minWords int
	maxWords int
	workers  int
}

func NewChunker(cfg ChunkerConfig) *Chunker {
	c := &Chunker{minWords: cfg.MinWords, maxWords: cfg.MaxWords, workers: cfg.Workers}
	if c.minWords <= 0 {
		c.minWords = DefaultMinWords
	}
	if c.maxWords <= c.minWords {
		c.maxWords = DefaultMaxWords
	}
	return c
}

// Chunk returns chunks in source order with ordinals assigned after
// deduplication and filtering. The output is identical to serial processing.
func (c *Chunker) Chunk(text string) []models.Chunk {
	paragraphs := paragraphRe.Split(text, -1)
	parts := make([][]string, len(paragraphs))

	var g errgroup.Group
	if c.workers > 0 {
		g.SetLimit(c.workers)
	}
	for i, p := range paragraphs {
		g.Go(func() error {
			parts[i] = c.chunkParagraph(strings.TrimSpace(p))
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var chunks []models.Chunk
	for _, pieces := range parts {
		for _, piece := range pieces {
			if _, dup := seen[piece]; dup {
				continue
			}
			seen[piece] = struct{}{}
			if isNumericNoise(piece) {
				continue
			}
			chunks = append(chunks, models.Chunk{Ordinal: len(chunks), Text: piece})
		}
	}
	return chunks
}

func (c *Chunker) chunkParagraph(p string) []string {
	words := wordCount(p)
	if words < c.minWords {
		return nil
	}
	if words <= c.maxWords {
		return []string{p}
	}

	var (
		out      []string
		cur      []string
		curWords int
	)
	for _, s := range splitSentences(p) {
		n := wordCount(s)
		if curWords+n < c.maxWords {
			cur = append(cur, s)
			curWords += n
			continue
		}
		if curWords >= c.minWords {
			out = append(out, strings.Join(cur, " "))
		}
		cur = []string{s}
		curWords = n
	}
	if curWords >= c.minWords {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// splitSentences cuts after '.', '!' or '?' when followed by whitespace.
func splitSentences(p string) []string {
	runes := []rune(p)
	var out []string
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// isNumericNoise reports chunks made only of digits and whitespace.
func isNumericNoise(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
