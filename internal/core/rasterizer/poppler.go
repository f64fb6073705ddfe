// Package rasterizer renders PDF pages to images with poppler-utils.
package rasterizer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

var (
	pagesRe    = regexp.MustCompile(`Pages:\s+(\d+)`)
	pageFileRe = regexp.MustCompile(`-(\d+)\.png$`)
)

// Options controls rendering fidelity.
type Options struct {
	DPI       int
	Grayscale bool
	MaxWidth  int
}

// DefaultOptions renders grayscale at 300 DPI, capped to a US-letter width at that resolution.
func DefaultOptions() Options {
	return Options{DPI: 300, Grayscale: true, MaxWidth: 2550}
}

// Poppler shells out to pdfinfo and pdftoppm.
type Poppler struct {
	opts     Options
	pdfinfo  string
	pdftoppm string
	logger   *slog.Logger
}

var _ core.Rasterizer = (*Poppler)(nil)

func New(opts Options, l *slog.Logger) *Poppler {
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions().DPI
	}
	return &Poppler{opts: opts, pdfinfo: "pdfinfo", pdftoppm: "pdftoppm", logger: logger.OrDefault(l)}
}

// PageCount asks pdfinfo how many pages the document has.
func (p *Poppler) PageCount(ctx context.Context, path string) (int, error) {
	cmd := exec.CommandContext(ctx, p.pdfinfo, path)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("pdfinfo: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parsePageCount(&out)
}

// Render writes every page into a scratch directory, decodes the images and
// removes the directory before returning, whether or not rendering succeeded.
func (p *Poppler) Render(ctx context.Context, path string) ([]models.Page, error) {
	count, err := p.PageCount(ctx, path)
	if err != nil {
		return nil, core.Unreadable(path, err)
	}
	if count == 0 {
		return nil, core.Unreadable(path, fmt.Errorf("zero pages"))
	}

	tmp, err := os.MkdirTemp("", "docsense-pages-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	args := []string{"-r", strconv.Itoa(p.opts.DPI)}
	if p.opts.Grayscale {
		args = append(args, "-gray")
	}
	args = append(args, "-png", path, filepath.Join(tmp, "page"))

	cmd := exec.CommandContext(ctx, p.pdftoppm, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.Unreadable(path, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(stderr.String())))
	}

	files, err := pageFiles(tmp)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, core.Unreadable(path, fmt.Errorf("pdftoppm produced no pages"))
	}
	if len(files) != count {
		p.logger.Warn("rendered page count differs from pdfinfo", "path", path, "pdfinfo", count, "rendered", len(files))
	}

	pages := make([]models.Page, 0, len(files))
	for i, f := range files {
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("decode page %d: %w", i+1, err)
		}
		pages = append(pages, models.Page{Index: i, Image: capWidth(img, p.opts.MaxWidth)})
	}

	p.logger.Debug("rasterized document", "path", path, "pages", len(pages), "dpi", p.opts.DPI)
	return pages, nil
}

func parsePageCount(out *bytes.Buffer) (int, error) {
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		if m := pagesRe.FindStringSubmatch(scanner.Text()); len(m) == 2 {
			return strconv.Atoi(m[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

// pageFiles lists page-N.png files in dir ordered numerically by N.
func pageFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	out := make([]numbered, 0, len(matches))
	for _, m := range matches {
		sub := pageFileRe.FindStringSubmatch(filepath.Base(m))
		if len(sub) != 2 {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			continue
		}
		out = append(out, numbered{n: n, path: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })

	files := make([]string, len(out))
	for i, f := range out {
		files[i] = f.path
	}
	return files, nil
}

func capWidth(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}
