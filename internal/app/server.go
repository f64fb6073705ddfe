package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/docsense/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docsense/internal/api/middlewares"
	"github.com/markdave123-py/docsense/internal/config"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, docs *services.DocumentService, l *slog.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(docs, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger.OrDefault(l)}
}

// NewRouter mounts the API. Routes require a bearer token only when jwtSecret is set.
func NewRouter(docs *services.DocumentService, jwtSecret string) http.Handler {
	docHandler := handlers.NewDocumentHandler(docs)
	chatHandler := handlers.NewChatHandler(docs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		if jwtSecret != "" {
			api.Use(appMiddleware.JWTMiddleware(jwtSecret))
		}
		api.Post("/documents", docHandler.LoadDocument)
		api.Get("/documents", docHandler.GetDocuments)
		api.Get("/documents/{id}", docHandler.GetDocument)
		api.Post("/chat/query", chatHandler.QueryDocument)
		api.Delete("/cache", docHandler.ClearCache)
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
