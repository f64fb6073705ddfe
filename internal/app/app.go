package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/markdave123-py/docsense/internal/config"
	"github.com/markdave123-py/docsense/internal/logger"
)

type App struct {
	Pipeline *Pipeline
	Server   *Server
}

// NewApp builds the full pipeline and starts the background ingest workers on ctx.
func NewApp(ctx context.Context, cfg *config.Config, l *slog.Logger) (*App, error) {
	l = logger.OrDefault(l)
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pipeline, err := NewPipeline(initCtx, cfg, l, true)
	if err != nil {
		return nil, err
	}

	pipeline.Ingestor.Start(ctx, cfg.IngestWorkers)
	l.Info("ingest workers started", "workers", cfg.IngestWorkers)

	server := NewServer(cfg, pipeline.Documents, l)

	return &App{Pipeline: pipeline, Server: server}, nil
}

func (a *App) Close() {
	if a.Pipeline != nil {
		a.Pipeline.Close()
	}
}
