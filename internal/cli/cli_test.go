package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsense/internal/app"
	"github.com/markdave123-py/docsense/internal/config"
	ingestion "github.com/markdave123-py/docsense/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsense/internal/models"
	"github.com/markdave123-py/docsense/internal/services"
)

type stubIngestor struct {
	loads []string
}

func (s *stubIngestor) Start(ctx context.Context, n int) {}
func (s *stubIngestor) Enqueue(job ingestion.Job)       {}

func (s *stubIngestor) ProcessOne(ctx context.Context, path string, progress chan<- models.PageProgress) (*models.LoadedDocument, error) {
	s.loads = append(s.loads, path)
	for i := 1; i <= 2; i++ {
		progress <- models.PageProgress{Done: i, Total: 2}
	}
	return &models.LoadedDocument{
		Document: models.Document{Path: path},
		Text:     "The warranty lasts two full years.\n\nReturns are accepted within thirty days.",
		Chunks: []models.Chunk{
			{Ordinal: 0, Text: "The warranty lasts two full years."},
			{Ordinal: 1, Text: "Returns are accepted within thirty days."},
		},
		PageCount: 2,
	}, nil
}

type stubRetriever struct{}

func (stubRetriever) FindRelevant(ctx context.Context, q string, chunks []models.Chunk) ([]models.RankedResult, error) {
	if strings.Contains(q, "weather") {
		return []models.RankedResult{}, nil
	}
	return []models.RankedResult{{Chunk: chunks[0], Score: 0.8}}, nil
}

type stubStore struct{ cleared bool }

func (s *stubStore) Get(ctx context.Context, fp string) (string, bool)            { return "", false }
func (s *stubStore) Put(ctx context.Context, rec *models.ExtractionRecord) error { return nil }
func (s *stubStore) Clear(ctx context.Context) error {
	s.cleared = true
	return nil
}

type fixture struct {
	ingestor *stubIngestor
	store    *stubStore
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func setupCLI(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("CACHE_DIR", t.TempDir())

	f := &fixture{
		ingestor: &stubIngestor{},
		store:    &stubStore{},
		stdout:   new(bytes.Buffer),
		stderr:   new(bytes.Buffer),
	}

	old := buildPipeline
	buildPipeline = func(ctx context.Context, c *config.Config, l *slog.Logger, withRetrieval bool) (*app.Pipeline, error) {
		docs := services.NewDocumentService(services.DocumentServiceConfig{
			Ingestor:  f.ingestor,
			Retriever: stubRetriever{},
			Store:     f.store,
			Logger:    l,
		})
		return &app.Pipeline{Store: f.store, Documents: docs}, nil
	}

	rootCmd.SetOut(f.stdout)
	rootCmd.SetErr(f.stderr)
	t.Cleanup(func() {
		buildPipeline = old
		chunksJSON = false
		askAI = false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return f
}

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestExtractCmd(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, run("extract", "/docs/manual.pdf"))

	assert.Contains(t, f.stdout.String(), "The warranty lasts two full years.")
	assert.Contains(t, f.stderr.String(), "Processing page 2 of 2")
	assert.Equal(t, []string{"/docs/manual.pdf"}, f.ingestor.loads)
}

func TestExtractCmd_RequiresPath(t *testing.T) {
	setupCLI(t)

	err := run("extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestChunksCmd(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, run("chunks", "/docs/manual.pdf"))
	assert.Contains(t, f.stdout.String(), "[0] The warranty lasts two full years.")
	assert.Contains(t, f.stdout.String(), "[1] Returns are accepted within thirty days.")
	assert.Contains(t, f.stderr.String(), "2 chunks")
}

func TestChunksCmd_JSON(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, run("chunks", "--json", "/docs/manual.pdf"))
	assert.Contains(t, f.stdout.String(), `"ordinal": 1`)
}

func TestAskCmd_SingleQuestion(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, run("ask", "/docs/manual.pdf", "How long is the warranty?"))

	out := f.stdout.String()
	assert.Contains(t, out, "Result 1 (Confidence: 0.80)")
	assert.Contains(t, out, strings.Repeat("-", 80))
	assert.Contains(t, out, "The warranty lasts two full years.")
}

func TestAskCmd_AIWithoutSynthesizer(t *testing.T) {
	setupCLI(t)

	err := run("ask", "--ai", "/docs/manual.pdf", "How long is the warranty?")
	assert.ErrorIs(t, err, services.ErrSynthesisUnavailable)
}

func TestAskCmd_Interactive(t *testing.T) {
	f := setupCLI(t)
	rootCmd.SetIn(strings.NewReader("How long is the warranty?\n\nwhat is the weather\nback\n/docs/other.pdf\nquit\n"))

	require.NoError(t, run("ask", "/docs/manual.pdf"))

	out := f.stdout.String()
	assert.Contains(t, out, "Ready to answer questions! Found 2 text segments.")
	assert.Contains(t, out, "Result 1 (Confidence: 0.80)")
	assert.Contains(t, out, "Please enter a question!")
	assert.Contains(t, out, "No relevant information found.")
	assert.Equal(t, []string{"/docs/manual.pdf", "/docs/other.pdf"}, f.ingestor.loads)
}

func TestAskCmd_InteractiveQuitAtPathPrompt(t *testing.T) {
	f := setupCLI(t)
	rootCmd.SetIn(strings.NewReader("quit\n"))

	require.NoError(t, run("ask"))
	assert.Contains(t, f.stdout.String(), "Enter the path to your PDF file")
	assert.Empty(t, f.ingestor.loads)
}

func TestCacheClearCmd(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, run("cache", "clear"))
	assert.True(t, f.store.cleared)
	assert.Contains(t, f.stdout.String(), "Cleared disk extraction cache.")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	setupCLI(t)
	t.Setenv("RANK_TOP_K", "0")

	err := run("extract", "/docs/manual.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANK_TOP_K")
}
