package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/docsense/internal/config"
	"github.com/markdave123-py/docsense/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends CA verification parameters when a certificate path is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is empty")
	}
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) GetExtraction(ctx context.Context, fingerprint string) (*models.ExtractionRecord, error) {
	const q = `
		SELECT fingerprint, source_path, modified_at, extracted_at, text
		FROM extraction_records
		WHERE fingerprint = $1
	`
	var r models.ExtractionRecord
	err := c.db.QueryRowContext(ctx, q, fingerprint).Scan(
		&r.Fingerprint, &r.SourcePath, &r.ModifiedAt, &r.ExtractedAt, &r.Text,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *DatabaseClient) UpsertExtraction(ctx context.Context, rec *models.ExtractionRecord) error {
	if rec == nil {
		return errors.New("nil extraction record")
	}
	const q = `
		INSERT INTO extraction_records (fingerprint, source_path, modified_at, extracted_at, text)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fingerprint) DO UPDATE
		SET source_path = EXCLUDED.source_path,
		    modified_at = EXCLUDED.modified_at,
		    extracted_at = EXCLUDED.extracted_at,
		    text = EXCLUDED.text
	`
	_, err := c.db.ExecContext(ctx, q,
		rec.Fingerprint, rec.SourcePath, rec.ModifiedAt, rec.ExtractedAt, rec.Text)
	return err
}

func (c *DatabaseClient) DeleteAllExtractions(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM extraction_records`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
