package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	ingestion "github.com/markdave123-py/docsense/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsense/internal/services"
)

type DocumentHandler struct {
	docs *services.DocumentService
}

func NewDocumentHandler(docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

type LoadRequest struct {
	Path string `json:"path"`
}

// LoadDocument validates the path and queues the document for background loading.
func (h *DocumentHandler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	if _, err := ingestion.Identify(req.Path); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	sess := h.docs.LoadAsync(req.Path)
	writeJSON(w, http.StatusAccepted, sess)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.docs.List())
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := h.docs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ClearCache empties the extraction cache and the embedding cache.
func (h *DocumentHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.ClearCache(r.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
