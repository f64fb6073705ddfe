// Package ocr runs page-level text recognition over a bounded worker pool.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	Workers  int     // 0 means runtime.NumCPU()
	Language string  // tesseract language code, default "eng"
	Contrast float64 // contrast boost in percent applied before recognition
	Logger   *slog.Logger
}

// PageFailure records a page whose recognition failed. The page contributes no text.
type PageFailure struct {
	Index int
	Err   error
}

// Batch holds per-page texts in page order.
type Batch struct {
	Texts    []string
	Failures []PageFailure
}

// Text joins the page texts, omitting empty pages.
func (b *Batch) Text() string {
	return JoinPages(b.Texts)
}

// FailedPages returns the 0-based indexes of failed pages in ascending order.
func (b *Batch) FailedPages() []int {
	out := make([]int, 0, len(b.Failures))
	for _, f := range b.Failures {
		out = append(out, f.Index)
	}
	return out
}

type Pool struct {
	engine   core.OCREngine
	workers  int
	lang     string
	contrast float64
	logger   *slog.Logger
}

func NewPool(engine core.OCREngine, cfg PoolConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	return &Pool{
		engine:   engine,
		workers:  workers,
		lang:     lang,
		contrast: cfg.Contrast,
		logger:   logger.OrDefault(cfg.Logger),
	}
}

func (p *Pool) Workers() int { return p.workers }

// Recognize OCRs every page concurrently. Texts come back indexed by page
// regardless of completion order. A failing page yields "" and is recorded
// in Failures; only context cancellation fails the batch.
//
// When progress is non-nil exactly one event is sent per completed page with
// Done strictly increasing. The caller must keep draining the channel.
func (p *Pool) Recognize(ctx context.Context, pages []models.Page, progress chan<- models.PageProgress) (*Batch, error) {
	total := len(pages)
	texts := make([]string, total)
	errs := make([]error, total)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			texts[i], errs[i] = p.recognizePage(gctx, page)
			if errs[i] != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if progress == nil {
				return nil
			}
			select {
			case progress <- models.PageProgress{Done: done, Total: total}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a page that finished just as ctx was cancelled must not pass for a complete batch
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{Texts: texts}
	for i, err := range errs {
		if err == nil {
			continue
		}
		texts[i] = ""
		failure := core.NewError(core.ErrPageOCRFailure, "ocr", fmt.Sprintf("page %d", i+1), err)
		batch.Failures = append(batch.Failures, PageFailure{Index: i, Err: failure})
		p.logger.Warn("page OCR failed", "page", i+1, "total", total, "error", err)
	}
	return batch, nil
}

func (p *Pool) recognizePage(ctx context.Context, page models.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if page.Image == nil {
		return "", fmt.Errorf("page has no image")
	}
	raw, err := p.engine.Recognize(ctx, Preprocess(page.Image, p.contrast), p.lang)
	if err != nil {
		return "", err
	}
	return Normalize(raw), nil
}
