package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/core/cache"
	"github.com/markdave123-py/docsense/internal/core/ocr"
	"github.com/markdave123-py/docsense/internal/models"
)

// fakeRasterizer renders n blank pages; page i is 10+i pixels wide.
type fakeRasterizer struct {
	pages int
	err   error
	calls atomic.Int32
}

func (f *fakeRasterizer) Render(ctx context.Context, path string) ([]models.Page, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]models.Page, f.pages)
	for i := range pages {
		pages[i] = models.Page{Index: i, Image: image.NewGray(image.Rect(0, 0, 10+i, 4))}
	}
	return pages, nil
}

// pageEngine returns texts[i] for the page that is 10+i pixels wide.
type pageEngine struct {
	texts map[int]string
	errs  map[int]error
	calls atomic.Int32
}

func (e *pageEngine) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	e.calls.Add(1)
	idx := img.Bounds().Dx() - 10
	if err := e.errs[idx]; err != nil {
		return "", err
	}
	return e.texts[idx], nil
}

// memStore is an in-memory core.ExtractionStore.
type memStore struct {
	mu     sync.Mutex
	recs   map[string]*models.ExtractionRecord
	putErr error
	puts   int
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]*models.ExtractionRecord)}
}

func (m *memStore) Get(ctx context.Context, fp string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[fp]
	if !ok {
		return "", false
	}
	return rec.Text, true
}

func (m *memStore) Put(ctx context.Context, rec *models.ExtractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.recs[rec.Fingerprint] = rec
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = make(map[string]*models.ExtractionRecord)
	return nil
}

type fakeTextLayer struct {
	text string
	err  error
}

func (f *fakeTextLayer) ReadText(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n% fake body\n%%EOF\n"), 0o644))
	return path
}

type extractorFixture struct {
	rasterizer *fakeRasterizer
	engine     *pageEngine
	store      *memStore
	logs       *bytes.Buffer
	extractor  *Extractor
}

func newExtractorFixture(pages int, texts map[int]string, errs map[int]error) *extractorFixture {
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, nil))
	f := &extractorFixture{
		rasterizer: &fakeRasterizer{pages: pages},
		engine:     &pageEngine{texts: texts, errs: errs},
		store:      newMemStore(),
		logs:       &logs,
	}
	pool := ocr.NewPool(f.engine, ocr.PoolConfig{Workers: 2, Logger: l})
	f.extractor = NewExtractor(f.rasterizer, pool, f.store, nil, l)
	return f
}

func threePages() map[int]string {
	return map[int]string{0: "Page one text.", 1: "Page two text.", 2: "Page three text."}
}

func TestExtractor_IdempotentViaCache(t *testing.T) {
	ctx := context.Background()
	path := writePDF(t, t.TempDir(), "report.pdf")
	f := newExtractorFixture(3, threePages(), nil)

	first, err := f.extractor.Extract(ctx, path, nil)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 3, first.PageCount)
	assert.EqualValues(t, 3, f.engine.calls.Load())

	second, err := f.extractor.Extract(ctx, path, nil)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Document.Fingerprint, second.Document.Fingerprint)

	assert.EqualValues(t, 3, f.engine.calls.Load(), "second extraction must not OCR")
	assert.EqualValues(t, 1, f.rasterizer.calls.Load())
}

func TestExtractor_MtimeChangeForcesReextraction(t *testing.T) {
	ctx := context.Background()
	path := writePDF(t, t.TempDir(), "report.pdf")
	f := newExtractorFixture(3, threePages(), nil)

	first, err := f.extractor.Extract(ctx, path, nil)
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := f.extractor.Extract(ctx, path, nil)
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.NotEqual(t, first.Document.Fingerprint, second.Document.Fingerprint)
	assert.EqualValues(t, 2, f.rasterizer.calls.Load())
	assert.EqualValues(t, 6, f.engine.calls.Load())
}

func TestExtractor_FailedPageContributesNothing(t *testing.T) {
	path := writePDF(t, t.TempDir(), "scan.pdf")
	f := newExtractorFixture(3, threePages(), map[int]error{1: errors.New("ocr blew up")})

	doc, err := f.extractor.Extract(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Page one text.\n\nPage three text.", doc.Text)
	assert.Equal(t, []int{1}, doc.FailedPages)
	assert.Contains(t, f.logs.String(), "page OCR failed")
}

func TestExtractor_NoTextExtracted(t *testing.T) {
	path := writePDF(t, t.TempDir(), "blank.pdf")
	f := newExtractorFixture(3, map[int]string{0: "  ", 1: "", 2: "\n"}, nil)

	_, err := f.extractor.Extract(context.Background(), path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNoTextExtracted)
	assert.Zero(t, f.store.puts)
}

func TestExtractor_TextLayerFallback(t *testing.T) {
	path := writePDF(t, t.TempDir(), "digital.pdf")
	f := newExtractorFixture(2, map[int]string{}, nil)
	f.extractor.textLayer = &fakeTextLayer{text: "Embedded   first paragraph. With two sentences.\n\n\nSecond  paragraph here."}

	doc, err := f.extractor.Extract(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Embedded first paragraph.\nWith two sentences.\n\nSecond paragraph here.", doc.Text)
	assert.Equal(t, 1, f.store.puts)
}

func TestExtractor_TextLayerFallbackFailure(t *testing.T) {
	path := writePDF(t, t.TempDir(), "digital.pdf")
	f := newExtractorFixture(1, map[int]string{}, nil)
	f.extractor.textLayer = &fakeTextLayer{err: errors.New("pdftotext missing")}

	_, err := f.extractor.Extract(context.Background(), path, nil)
	assert.ErrorIs(t, err, core.ErrNoTextExtracted)
	assert.Contains(t, f.logs.String(), "text layer fallback failed")
}

func TestExtractor_CacheWriteFailureIsNotFatal(t *testing.T) {
	path := writePDF(t, t.TempDir(), "report.pdf")
	f := newExtractorFixture(3, threePages(), nil)
	f.store.putErr = errors.New("disk full")

	doc, err := f.extractor.Extract(context.Background(), path, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Text)
	assert.Contains(t, f.logs.String(), "extraction cache write failed")
}

func TestExtractor_CorruptDiskEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writePDF(t, dir, "report.pdf")

	store, err := cache.NewDiskStore(filepath.Join(dir, "cache"), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	doc, err := Identify(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), doc.Fingerprint+".json"), []byte("\x00garbage"), 0o644))

	f := newExtractorFixture(3, threePages(), nil)
	f.extractor.store = store

	loaded, err := f.extractor.Extract(ctx, path, nil)
	require.NoError(t, err)
	assert.False(t, loaded.FromCache)
	assert.EqualValues(t, 3, f.engine.calls.Load())

	text, ok := store.Get(ctx, doc.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, loaded.Text, text)
}

func TestExtractor_Progress(t *testing.T) {
	path := writePDF(t, t.TempDir(), "report.pdf")
	f := newExtractorFixture(3, threePages(), nil)

	progress := make(chan models.PageProgress, 3)
	_, err := f.extractor.Extract(context.Background(), path, progress)
	require.NoError(t, err)
	close(progress)

	var done []int
	for ev := range progress {
		assert.Equal(t, 3, ev.Total)
		done = append(done, ev.Done)
	}
	assert.Equal(t, []int{1, 2, 3}, done)
}

func TestExtractor_Unreadable(t *testing.T) {
	dir := t.TempDir()
	good := writePDF(t, dir, "good.pdf")
	notPDF := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("%PDF-1.4"), 0o644))
	badHeader := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(badHeader, []byte("PK\x03\x04 zip archive"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	tests := []struct {
		name  string
		path  string
		pages int
		rErr  error
	}{
		{"empty path", "", 1, nil},
		{"missing", filepath.Join(dir, "missing.pdf"), 1, nil},
		{"wrong extension", notPDF, 1, nil},
		{"bad header", badHeader, 1, nil},
		{"directory", filepath.Join(dir, "folder.pdf"), 1, nil},
		{"zero pages", good, 0, nil},
		{"rasterizer failure", good, 1, errors.New("pdftoppm: syntax error")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExtractorFixture(tt.pages, map[int]string{0: "text"}, nil)
			f.rasterizer.err = tt.rErr

			_, err := f.extractor.Extract(context.Background(), tt.path, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrDocumentUnreadable)
			assert.Zero(t, f.engine.calls.Load())
		})
	}
}

func TestIdentify(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "Upper.PDF")

	doc, err := Identify(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(doc.Path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, cache.Fingerprint(doc.Path, info.ModTime()), doc.Fingerprint)
}

// stallingEngine answers page 0 and holds the rest until ctx is done.
type stallingEngine struct {
	blocked chan struct{}
}

func (e *stallingEngine) Recognize(ctx context.Context, img image.Image, lang string) (string, error) {
	if img.Bounds().Dx() == 10 {
		return "Page one has plenty of words in it.", nil
	}
	e.blocked <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

func TestExtractor_CancelledRunIsNotCached(t *testing.T) {
	path := writePDF(t, t.TempDir(), "report.pdf")
	f := newExtractorFixture(3, threePages(), nil)

	stalling := &stallingEngine{blocked: make(chan struct{}, 2)}
	l := slog.New(slog.NewTextHandler(f.logs, nil))
	cancelled := NewExtractor(f.rasterizer, ocr.NewPool(stalling, ocr.PoolConfig{Workers: 3, Logger: l}), f.store, nil, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		_, err := cancelled.Extract(ctx, path, nil)
		errc <- err
	}()
	<-stalling.blocked
	<-stalling.blocked
	cancel()

	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Extract did not return after cancellation")
	}
	assert.Zero(t, f.store.puts)

	doc, err := f.extractor.Extract(context.Background(), path, nil)
	require.NoError(t, err)
	assert.False(t, doc.FromCache)
	assert.EqualValues(t, 3, f.engine.calls.Load())
	assert.Equal(t, "Page one text.\n\nPage two text.\n\nPage three text.", doc.Text)
}
