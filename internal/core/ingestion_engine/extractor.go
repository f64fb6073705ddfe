package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/core/cache"
	"github.com/markdave123-py/docsense/internal/core/ocr"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

var pdfMagic = []byte("%PDF-")

// pdfHeaderWindow is how far into the file the header may start.
const pdfHeaderWindow = 1024

// Extractor turns a PDF path into document text, reading through and
// writing through the extraction cache.
type Extractor struct {
	rasterizer core.Rasterizer
	pool       *ocr.Pool
	store      core.ExtractionStore
	textLayer  core.TextLayerReader
	logger     *slog.Logger
	now        func() time.Time
}

// NewExtractor wires the extraction stages. textLayer may be nil to disable
// the embedded-text fallback for documents OCR finds nothing in.
func NewExtractor(r core.Rasterizer, pool *ocr.Pool, store core.ExtractionStore, textLayer core.TextLayerReader, l *slog.Logger) *Extractor {
	return &Extractor{
		rasterizer: r,
		pool:       pool,
		store:      store,
		textLayer:  textLayer,
		logger:     logger.OrDefault(l),
		now:        time.Now,
	}
}

// Extract returns the text of the PDF at path. A cache hit skips
// rasterization and OCR entirely. progress may be nil; the caller owns it.
func (e *Extractor) Extract(ctx context.Context, path string, progress chan<- models.PageProgress) (*models.LoadedDocument, error) {
	doc, err := Identify(path)
	if err != nil {
		return nil, err
	}
	log := e.logger.With("path", doc.Path, "fingerprint", doc.Fingerprint[:12])

	if text, ok := e.store.Get(ctx, doc.Fingerprint); ok {
		log.Info("extraction cache hit")
		return &models.LoadedDocument{Document: *doc, Text: text, FromCache: true}, nil
	}

	start := e.now()
	pages, err := e.rasterizer.Render(ctx, doc.Path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, core.ErrDocumentUnreadable) {
			return nil, err
		}
		return nil, core.Unreadable(doc.Path, err)
	}
	if len(pages) == 0 {
		return nil, core.Unreadable(doc.Path, fmt.Errorf("zero pages"))
	}
	log.Info("rasterized", "pages", len(pages))

	batch, err := e.pool.Recognize(ctx, pages, progress)
	if err != nil {
		return nil, err
	}
	text := batch.Text()

	if strings.TrimSpace(text) == "" && e.textLayer != nil {
		text = e.readTextLayer(ctx, doc.Path, log)
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.NewError(core.ErrNoTextExtracted, "extract", doc.Path, nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := &models.ExtractionRecord{
		Fingerprint: doc.Fingerprint,
		SourcePath:  doc.Path,
		ModifiedAt:  doc.ModifiedAt,
		ExtractedAt: e.now().UTC(),
		Text:        text,
	}
	if err := e.store.Put(ctx, rec); err != nil {
		log.Warn("extraction cache write failed", "error", err)
	}

	log.Info("extracted",
		"pages", len(pages),
		"failed_pages", len(batch.Failures),
		"chars", len(text),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &models.LoadedDocument{
		Document:    *doc,
		Text:        text,
		PageCount:   len(pages),
		FailedPages: batch.FailedPages(),
	}, nil
}

func (e *Extractor) readTextLayer(ctx context.Context, path string, log *slog.Logger) string {
	raw, err := e.textLayer.ReadText(ctx, path)
	if err != nil {
		log.Warn("text layer fallback failed", "error", err)
		return ""
	}
	paragraphs := paragraphRe.Split(raw, -1)
	for i, p := range paragraphs {
		paragraphs[i] = ocr.Normalize(p)
	}
	text := ocr.JoinPages(paragraphs)
	if text != "" {
		log.Info("using embedded text layer", "chars", len(text))
	}
	return text
}

// Identify validates path as a readable PDF and returns its identity.
func Identify(path string) (*models.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, core.NewError(core.ErrDocumentUnreadable, "validate", path, fmt.Errorf("empty path"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, core.NewError(core.ErrDocumentUnreadable, "validate", path, err)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".pdf") {
		return nil, core.NewError(core.ErrDocumentUnreadable, "validate", abs, fmt.Errorf("not a .pdf file"))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, core.NewError(core.ErrDocumentUnreadable, "stat", abs, err)
	}
	if info.IsDir() {
		return nil, core.NewError(core.ErrDocumentUnreadable, "stat", abs, fmt.Errorf("is a directory"))
	}
	if err := checkPDFHeader(abs); err != nil {
		return nil, core.NewError(core.ErrDocumentUnreadable, "validate", abs, err)
	}

	return &models.Document{
		Path:        abs,
		ModifiedAt:  info.ModTime(),
		Fingerprint: cache.Fingerprint(abs, info.ModTime()),
	}, nil
}

func checkPDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return fmt.Errorf("missing %%PDF- header")
	}
	return nil
}
