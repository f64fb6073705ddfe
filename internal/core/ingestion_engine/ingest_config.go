package ingestion_engine

import "github.com/markdave123-py/docsense/internal/models"

// IngestConfig tunes the background ingestion queue.
//
// QueueSize: buffered jobs before Enqueue blocks.
type IngestConfig struct {
	QueueSize int
}

// Job is one background document load.
//
// ID:       caller-chosen identifier echoed in logs.
// Path:     PDF to load.
// Progress: optional page progress sink; never closed by the ingestor.
// Done:     called exactly once with the result.
type Job struct {
	ID       string
	Path     string
	Progress chan<- models.PageProgress
	Done     func(doc *models.LoadedDocument, err error)
}
