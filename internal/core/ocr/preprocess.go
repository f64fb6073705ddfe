package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess converts to grayscale and boosts contrast by the given percentage.
func Preprocess(img image.Image, contrast float64) image.Image {
	gray := imaging.Grayscale(img)
	if contrast == 0 {
		return gray
	}
	return imaging.AdjustContrast(gray, contrast)
}

// EncodePNG serializes img for engines that take encoded bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
