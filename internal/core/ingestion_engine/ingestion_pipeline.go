package ingestion_engine

import (
	"context"
	"log/slog"

	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

// DocumentIngestor loads documents: extract text, then chunk it.
type DocumentIngestor struct {
	extractor *Extractor
	chunker   *Chunker
	jobs      chan Job
	logger    *slog.Logger
}

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor with a bounded job queue (64 by default).
func NewDocumentIngestor(extractor *Extractor, chunker *Chunker, cfg *IngestConfig, l *slog.Logger) *DocumentIngestor {
	size := 64
	if cfg != nil && cfg.QueueSize > 0 {
		size = cfg.QueueSize
	}
	return &DocumentIngestor{
		extractor: extractor,
		chunker:   chunker,
		jobs:      make(chan Job, size),
		logger:    logger.OrDefault(l),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel until ctx is done.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.logger.Debug("ingest worker shutting down", "worker", w)
					return
				case job := <-i.jobs:
					i.logger.Info("processing document", "job", job.ID, "path", job.Path, "worker", w)

					doc, err := i.ProcessOne(ctx, job.Path, job.Progress)
					if err != nil {
						i.logger.Error("document load failed", "job", job.ID, "path", job.Path, "error", err)
					}
					if job.Done != nil {
						job.Done(doc, err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a document load.
// If the queue is full, this call will block until space frees up.
func (i *DocumentIngestor) Enqueue(job Job) {
	i.jobs <- job
}

// ProcessOne extracts and chunks a single document synchronously.
func (i *DocumentIngestor) ProcessOne(ctx context.Context, path string, progress chan<- models.PageProgress) (*models.LoadedDocument, error) {
	doc, err := i.extractor.Extract(ctx, path, progress)
	if err != nil {
		return nil, err
	}
	doc.Chunks = i.chunker.Chunk(doc.Text)
	i.logger.Info("document ready", "path", doc.Document.Path, "chunks", len(doc.Chunks), "from_cache", doc.FromCache)
	return doc, nil
}
