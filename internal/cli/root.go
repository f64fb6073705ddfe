package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/docsense/internal/app"
	"github.com/markdave123-py/docsense/internal/config"
	"github.com/markdave123-py/docsense/internal/logger"
)

var (
	cfg *config.Config
	log *slog.Logger

	logLevel      string
	cacheBackend  string
	ocrEngine     string
	topK          int
	minSimilarity float64
)

// buildPipeline is swapped out in tests.
var buildPipeline = app.NewPipeline

var rootCmd = &cobra.Command{
	Use:   "docsense",
	Short: "Ask questions about scanned PDF documents",
	Long: `docsense rasterizes PDF pages, reads them with OCR, splits the text into
chunks and ranks those chunks against your questions by embedding similarity.
Extracted text is cached per file, so a PDF is only read once until it changes.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&cacheBackend, "cache-backend", "", "extraction cache backend (disk, postgres, s3)")
	pf.StringVar(&ocrEngine, "ocr-engine", "", "OCR engine (gosseract, cli)")
	pf.IntVarP(&topK, "top-k", "k", 0, "maximum number of results per question")
	pf.Float64Var(&minSimilarity, "min-similarity", 0, "results must score strictly above this")
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg = config.LoadConfig()

	level := cfg.LogLevel
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		level = "warn"
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level = logLevel
	}
	if flags.Changed("cache-backend") {
		cfg.CacheBackend = cacheBackend
	}
	if flags.Changed("ocr-engine") {
		cfg.OCREngine = ocrEngine
	}
	if flags.Changed("top-k") {
		cfg.RankTopK = topK
	}
	if flags.Changed("min-similarity") {
		cfg.RankMinSimilarity = minSimilarity
	}

	log = logger.NewWithWriter(cmd.ErrOrStderr(), level, cfg.LogFormat)
	return cfg.Validate()
}

func openPipeline(ctx context.Context, withRetrieval bool) (*app.Pipeline, error) {
	return buildPipeline(ctx, cfg, log, withRetrieval)
}
