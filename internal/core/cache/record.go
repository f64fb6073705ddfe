package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/models"
)

// DecodeRecord parses a stored record and checks it belongs to fp.
// Any problem is reported as core.ErrCacheCorruption.
func DecodeRecord(data []byte, fp string) (*models.ExtractionRecord, error) {
	var rec models.ExtractionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCacheCorruption, err)
	}
	if rec.Fingerprint != fp {
		return nil, fmt.Errorf("%w: fingerprint mismatch", core.ErrCacheCorruption)
	}
	if strings.TrimSpace(rec.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", core.ErrCacheCorruption)
	}
	return &rec, nil
}
