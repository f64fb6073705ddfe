package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/markdave123-py/docsense/internal/services"
)

type ChatHandler struct {
	docs *services.DocumentService
}

func NewChatHandler(docs *services.DocumentService) *ChatHandler {
	return &ChatHandler{docs: docs}
}

type ChatRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
	UseAI      bool   `json:"use_ai"`
}

func (h *ChatHandler) QueryDocument(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	ans, err := h.docs.Ask(r.Context(), req.DocumentID, req.Query, req.UseAI)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
