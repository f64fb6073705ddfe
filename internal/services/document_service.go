package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docsense/internal/core"
	ingestion "github.com/markdave123-py/docsense/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsense/internal/logger"
	"github.com/markdave123-py/docsense/internal/models"
)

var (
	ErrDocumentNotReady     = errors.New("document is not ready")
	ErrSynthesisUnavailable = errors.New("answer synthesis is not configured")
)

// Retriever ranks a document's chunks against a question.
type Retriever interface {
	FindRelevant(ctx context.Context, question string, chunks []models.Chunk) ([]models.RankedResult, error)
}

// Synthesizer turns ranked results into a prose answer.
type Synthesizer interface {
	Answer(ctx context.Context, question string, results []models.RankedResult) (string, error)
}

// Purger drops in-memory state such as cached embeddings.
type Purger interface {
	Purge()
}

type DocumentServiceConfig struct {
	Ingestor    ingestion.Ingestor
	Retriever   Retriever
	Synthesizer Synthesizer // optional
	Store       core.ExtractionStore
	Embeddings  Purger // optional
	Logger      *slog.Logger
}

// DocumentService keeps loaded documents in memory and answers questions against them.
type DocumentService struct {
	ingestor  ingestion.Ingestor
	retriever Retriever
	synth     Synthesizer
	store     core.ExtractionStore
	purger    Purger
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	return &DocumentService{
		ingestor:  cfg.Ingestor,
		retriever: cfg.Retriever,
		synth:     cfg.Synthesizer,
		store:     cfg.Store,
		purger:    cfg.Embeddings,
		logger:    logger.OrDefault(cfg.Logger),
		now:       time.Now,
		sessions:  make(map[string]*models.Session),
	}
}

// CanSynthesize reports whether Ask can produce prose answers.
func (s *DocumentService) CanSynthesize() bool { return s.synth != nil }

// Load extracts and chunks path synchronously. Progress events are forwarded
// to progress when it is non-nil; the channel is not closed.
func (s *DocumentService) Load(ctx context.Context, path string, progress chan<- models.PageProgress) (*models.Session, error) {
	sess := s.newSession(path)

	events := make(chan models.PageProgress)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range events {
			s.setProgress(sess.ID, p)
			if progress != nil {
				select {
				case progress <- p:
				case <-ctx.Done():
				}
			}
		}
	}()

	doc, err := s.ingestor.ProcessOne(ctx, path, events)
	close(events)
	<-drained

	s.finish(sess.ID, doc, err)
	if err != nil {
		return s.snapshot(sess.ID), err
	}
	return s.snapshot(sess.ID), nil
}

// LoadAsync queues path for background loading and returns the new session immediately.
func (s *DocumentService) LoadAsync(path string) *models.Session {
	sess := s.newSession(path)

	events := make(chan models.PageProgress, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range events {
			s.setProgress(sess.ID, p)
		}
	}()

	s.ingestor.Enqueue(ingestion.Job{
		ID:       sess.ID,
		Path:     path,
		Progress: events,
		Done: func(doc *models.LoadedDocument, err error) {
			close(events)
			<-drained
			s.finish(sess.ID, doc, err)
		},
	})
	return s.snapshot(sess.ID)
}

func (s *DocumentService) Get(id string) (*models.Session, error) {
	sess := s.snapshot(id)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns every session, oldest first.
func (s *DocumentService) List() []models.Session {
	s.mu.RLock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Ask ranks the session's chunks against question. With synthesize set, a
// prose answer is generated only when at least one chunk cleared the threshold.
// A synthesis failure is reported on the answer, not as an error.
func (s *DocumentService) Ask(ctx context.Context, id, question string, synthesize bool) (*models.Answer, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusReady || sess.Document == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrDocumentNotReady, id, sess.Status)
	}
	if synthesize && s.synth == nil {
		return nil, ErrSynthesisUnavailable
	}

	results, err := s.retriever.FindRelevant(ctx, question, sess.Document.Chunks)
	if err != nil {
		return nil, err
	}

	ans := &models.Answer{Question: question, Results: results}
	if !synthesize || len(results) == 0 {
		return ans, nil
	}

	text, err := s.synth.Answer(ctx, question, results)
	if err != nil {
		s.logger.Warn("answer synthesis failed", "session", id, "error", err)
		ans.SynthesisError = err.Error()
		return ans, nil
	}
	ans.Text = text
	return ans, nil
}

// ClearCache empties the extraction cache and any cached embeddings.
func (s *DocumentService) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear extraction cache: %w", err)
	}
	if s.purger != nil {
		s.purger.Purge()
	}
	s.logger.Info("caches cleared")
	return nil
}

func (s *DocumentService) newSession(path string) *models.Session {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Path:      path,
		Status:    models.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *DocumentService) setProgress(id string, p models.PageProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Progress = p
		sess.UpdatedAt = s.now()
	}
}

func (s *DocumentService) finish(id string, doc *models.LoadedDocument, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	sess.UpdatedAt = s.now()
	if err != nil {
		sess.Status = models.StatusFailed
		sess.Error = err.Error()
		return
	}
	sess.Status = models.StatusReady
	sess.Document = doc
	if doc.PageCount > 0 {
		sess.Progress = models.PageProgress{Done: doc.PageCount, Total: doc.PageCount}
	}
}

func (s *DocumentService) snapshot(id string) *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	cp := *sess
	return &cp
}
