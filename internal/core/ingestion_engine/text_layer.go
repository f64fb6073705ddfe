package ingestion_engine

import (
	"context"
	"fmt"
	"os"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/docsense/internal/core"
)

// DocconvExtractor reads the embedded text layer of digital PDFs with sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

var _ core.TextLayerReader = (*DocconvExtractor)(nil)

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) ReadText(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	res, err := docconv.Convert(f, "application/pdf", e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return res.Body, nil
}
