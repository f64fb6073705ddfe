package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/docsense/internal/models"
)

type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(job Job)
	ProcessOne(ctx context.Context, path string, progress chan<- models.PageProgress) (*models.LoadedDocument, error)
}
