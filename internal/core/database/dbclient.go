package db

import (
	"context"

	"github.com/markdave123-py/docsense/internal/models"
)

// DbClient defines the persistence operations for extraction records.
type DbClient interface {
	// GetExtraction returns nil, nil when no record exists.
	GetExtraction(ctx context.Context, fingerprint string) (*models.ExtractionRecord, error)
	UpsertExtraction(ctx context.Context, rec *models.ExtractionRecord) error
	DeleteAllExtractions(ctx context.Context) (int64, error)

	Close() error
}
