package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/docsense/internal/core"
	"github.com/markdave123-py/docsense/internal/core/retrieval"
	"github.com/markdave123-py/docsense/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps pipeline and service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, retrieval.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDocumentNotReady):
		return http.StatusConflict
	case errors.Is(err, services.ErrSynthesisUnavailable),
		errors.Is(err, core.ErrDocumentUnreadable),
		errors.Is(err, core.ErrNoTextExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmbeddingFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
