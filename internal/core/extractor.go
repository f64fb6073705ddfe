package core

import (
	"context"
	"image"

	"github.com/markdave123-py/docsense/internal/models"
)

// Rasterizer turns a PDF into ordered page images.
type Rasterizer interface {
	Render(ctx context.Context, path string) ([]models.Page, error)
}

// OCREngine recognizes the text on a single page image.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image, lang string) (string, error)
}

// TextLayerReader reads the embedded text layer of a digital PDF.
type TextLayerReader interface {
	ReadText(ctx context.Context, path string) (string, error)
}
