package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
)

// CLIEngine pipes each page through the tesseract binary. It needs no cgo.
type CLIEngine struct {
	binary string
}

var _ core.OCREngine = (*CLIEngine)(nil)

func NewCLIEngine() *CLIEngine {
	return &CLIEngine{binary: "tesseract"}
}

func (e *CLIEngine) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, e.binary, "stdin", "stdout", "-l", lang, "--oem", "3", "--psm", "3")
	cmd.Stdin = bytes.NewReader(data)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
