package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

// ExtractionStore adapts a DbClient to core.ExtractionStore.
type ExtractionStore struct {
	client DbClient
	logger *slog.Logger
}

var _ core.ExtractionStore = (*ExtractionStore)(nil)

func NewExtractionStore(client DbClient, l *slog.Logger) *ExtractionStore {
	return &ExtractionStore{client: client, logger: logger.OrDefault(l)}
}

func (s *ExtractionStore) Get(ctx context.Context, fp string) (string, bool) {
	rec, err := s.client.GetExtraction(ctx, fp)
	if err != nil {
		s.logger.Warn("extraction cache unreadable", "fingerprint", fp, "error", err)
		return "", false
	}
	if rec == nil {
		return "", false
	}
	if rec.Fingerprint != fp || strings.TrimSpace(rec.Text) == "" {
		s.logger.Warn("extraction cache entry ignored", "fingerprint", fp, "error", core.ErrCacheCorruption)
		return "", false
	}
	return rec.Text, true
}

func (s *ExtractionStore) Put(ctx context.Context, rec *models.ExtractionRecord) error {
	if err := s.client.UpsertExtraction(ctx, rec); err != nil {
		return fmt.Errorf("upsert extraction: %w", err)
	}
	return nil
}

func (s *ExtractionStore) Clear(ctx context.Context) error {
	n, err := s.client.DeleteAllExtractions(ctx)
	if err != nil {
		return fmt.Errorf("delete extractions: %w", err)
	}
	s.logger.Info("extraction cache cleared", "records", n)
	return nil
}

func (s *ExtractionStore) Close() error {
	return s.client.Close()
}
