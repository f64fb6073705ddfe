package core

import (
	"context"
	"errors"

	"github.com/markdave123-py/docsense/internal/models"
)

// ErrObjectNotFound is returned by ObjectClient implementations for missing keys.
var ErrObjectNotFound = errors.New("object not found")

// ExtractionStore persists OCR output keyed by document fingerprint.
// Get never fails: unreadable entries are reported as a miss.
type ExtractionStore interface {
	Get(ctx context.Context, fingerprint string) (string, bool)
	Put(ctx context.Context, rec *models.ExtractionRecord) error
	Clear(ctx context.Context) error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}
