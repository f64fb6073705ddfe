package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/markdave123-py/docsense/internal/config"
	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/core/cache"
	db "github.com/markdave123-py/docsense/internal/core/database"
	ingestion "github.com/markdave123-py/docsense/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsense/internal/core/llm"
	objectclient "github.com/markdave123-py/docsense/internal/core/object-client"
	"github.com/markdave123-py/docsense/internal/core/ocr"
	"github.com/markdave123-py/docsense/internal/core/ocr/tesseract"
	"github.com/markdave123-py/docsense/internal/core/rasterizer"
	"github.com/markdave123-py/docsense/internal/core/retrieval"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/services"
)

// Pipeline holds every stage built from configuration.
// Embedder, Retriever and Synthesizer are nil unless retrieval was requested.
type Pipeline struct {
	Store       core.ExtractionStore
	Ingestor    *ingestion.DocumentIngestor
	Embedder    *retrieval.CachedEmbedder
	Retriever   *retrieval.Retriever
	Synthesizer *llm.Synthesizer
	Documents   *services.DocumentService

	logger  *slog.Logger
	closers []func() error
}

// NewPipeline builds the extraction stages and, with withRetrieval set, the
// embedding and answer stages. A missing generation key only disables synthesis.
func NewPipeline(ctx context.Context, cfg *config.Config, l *slog.Logger, withRetrieval bool) (*Pipeline, error) {
	l = logger.OrDefault(l)
	p := &Pipeline{logger: l}

	store, err := p.newStore(ctx, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Store = store

	pool := ocr.NewPool(newOCREngine(cfg), ocr.PoolConfig{
		Workers:  cfg.OCRWorkers,
		Language: cfg.OCRLanguage,
		Contrast: cfg.OCRContrast,
		Logger:   l,
	})
	raster := rasterizer.New(rasterizer.Options{
		DPI:       cfg.RasterDPI,
		Grayscale: true,
		MaxWidth:  cfg.RasterMaxWidth,
	}, l)

	var textLayer core.TextLayerReader
	if cfg.TextLayerFallback {
		textLayer = ingestion.NewDocconvExtractor(false)
	}

	extractor := ingestion.NewExtractor(raster, pool, store, textLayer, l)
	chunker := ingestion.NewChunker(ingestion.ChunkerConfig{
		MinWords: cfg.ChunkMinWords,
		MaxWords: cfg.ChunkMaxWords,
	})
	p.Ingestor = ingestion.NewDocumentIngestor(extractor, chunker, &ingestion.IngestConfig{}, l)

	svcCfg := services.DocumentServiceConfig{
		Ingestor: p.Ingestor,
		Store:    store,
		Logger:   l,
	}

	if withRetrieval {
		provider, err := p.newEmbeddingProvider(ctx, cfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		p.Embedder, err = retrieval.NewCachedEmbedder(provider, cfg.EmbedCacheSize)
		if err != nil {
			p.Close()
			return nil, err
		}
		l.Info("embedding provider ready", "model", p.Embedder.ModelName(), "dimensions", p.Embedder.Dimensions())
		p.Retriever = retrieval.NewRetriever(p.Embedder, retrieval.RetrieverConfig{
			Policy:  retrieval.Policy{MinSimilarity: cfg.RankMinSimilarity, TopK: cfg.RankTopK},
			Workers: cfg.EmbedWorkers,
			Logger:  l,
		})
		svcCfg.Retriever = p.Retriever
		svcCfg.Embeddings = p.Embedder

		if cfg.AIAPIKey != "" {
			gen, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel, llm.DefaultGenerationConfig())
			if err != nil {
				p.Close()
				return nil, fmt.Errorf("couldn't initialize the answer model, %w", err)
			}
			p.closers = append(p.closers, gen.Close)
			p.Synthesizer = llm.NewSynthesizer(gen)
			svcCfg.Synthesizer = p.Synthesizer
		} else {
			l.Info("answer synthesis disabled", "reason", "GEMINI_API_KEY not set")
		}
	}

	p.Documents = services.NewDocumentService(svcCfg)
	return p, nil
}

func (p *Pipeline) newStore(ctx context.Context, cfg *config.Config) (core.ExtractionStore, error) {
	switch cfg.CacheBackend {
	case "postgres":
		client, err := db.NewDatabaseClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, client.Close)
		p.logger.Info("extraction cache ready", "backend", "postgres")
		return db.NewExtractionStore(client, p.logger), nil
	case "s3":
		client, err := objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.logger.Info("extraction cache ready", "backend", "s3", "bucket", cfg.BucketName)
		return cache.NewObjectStore(client, cfg.BucketName, cfg.CachePrefix, p.logger)
	default:
		store, err := cache.NewDiskStore(cfg.CacheDir, p.logger)
		if err != nil {
			return nil, err
		}
		p.logger.Info("extraction cache ready", "backend", "disk", "dir", store.Dir())
		return store, nil
	}
}

func (p *Pipeline) newEmbeddingProvider(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "openai":
		return llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.EmbedMaxTokens), nil
	default:
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedMaxTokens)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, emb.Close)
		return emb, nil
	}
}

func newOCREngine(cfg *config.Config) core.OCREngine {
	if cfg.OCREngine == "cli" {
		return ocr.NewCLIEngine()
	}
	return tesseract.NewEngine()
}

// Close releases clients in reverse order of creation.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			p.logger.Warn("close failed", "error", err)
		}
	}
	p.closers = nil
}
