package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

// ObjectStore keeps extraction records as JSON objects in a bucket.
type ObjectStore struct {
	client core.ObjectClient
	bucket string
	prefix string
	logger *slog.Logger
}

var _ core.ExtractionStore = (*ObjectStore)(nil)

func NewObjectStore(client core.ObjectClient, bucket, prefix string, l *slog.Logger) (*ObjectStore, error) {
	if client == nil {
		return nil, fmt.Errorf("object client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is empty")
	}
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix, logger: logger.OrDefault(l)}, nil
}

func (s *ObjectStore) key(fp string) string {
	return path.Join(s.prefix, fp+recordExt)
}

func (s *ObjectStore) Get(ctx context.Context, fp string) (string, bool) {
	if !ValidFingerprint(fp) {
		return "", false
	}

	data, err := s.client.GetFile(ctx, s.bucket, s.key(fp))
	if err != nil {
		if !errors.Is(err, core.ErrObjectNotFound) {
			s.logger.Warn("extraction cache unreadable", "fingerprint", fp, "error", err)
		}
		return "", false
	}

	rec, err := DecodeRecord(data, fp)
	if err != nil {
		s.logger.Warn("extraction cache entry ignored", "fingerprint", fp, "error", err)
		return "", false
	}
	return rec.Text, true
}

func (s *ObjectStore) Put(ctx context.Context, rec *models.ExtractionRecord) error {
	if rec == nil || !ValidFingerprint(rec.Fingerprint) {
		return fmt.Errorf("invalid extraction record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := s.client.UploadFile(ctx, s.bucket, s.key(rec.Fingerprint), data, "application/json"); err != nil {
		return fmt.Errorf("upload record: %w", err)
	}
	return nil
}

func (s *ObjectStore) Clear(ctx context.Context) error {
	keys, err := s.client.ListKeys(ctx, s.bucket, s.prefix)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	for _, k := range keys {
		if !strings.HasSuffix(k, recordExt) {
			continue
		}
		if err := s.client.DeleteFile(ctx, s.bucket, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
