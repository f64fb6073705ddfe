package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

const recordExt = ".json"

// DiskStore keeps one JSON file per fingerprint under dir.
// Writes go through a temp file and rename, so readers never observe a partial record.
type DiskStore struct {
	dir    string
	logger *slog.Logger
}

var _ core.ExtractionStore = (*DiskStore)(nil)

func NewDiskStore(dir string, l *slog.Logger) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskStore{dir: dir, logger: logger.OrDefault(l)}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(fp string) string {
	return filepath.Join(s.dir, fp+recordExt)
}

func (s *DiskStore) Get(ctx context.Context, fp string) (string, bool) {
	if !ValidFingerprint(fp) {
		return "", false
	}

	data, err := os.ReadFile(s.path(fp))
	if err != nil {
		if !os.IsNotExist(err) {
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

func (s *DiskStore) Put(ctx context.Context, rec *models.ExtractionRecord) error {
	if rec == nil || !ValidFingerprint(rec.Fingerprint) {
		return fmt.Errorf("invalid extraction record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, rec.Fingerprint+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.Fingerprint)); err != nil {
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}

// Clear removes every cached record, leaving the directory in place.
func (s *DiskStore) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, recordExt) || strings.HasSuffix(name, ".tmp")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
