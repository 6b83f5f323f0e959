package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/storage"
)

// StatsProvider reports corpus-level counts.
type StatsProvider interface {
	Stats(ctx context.Context) (qa.StoreStats, error)
}

// Corpus exposes the session operations the document endpoints need.
type Corpus interface {
	Clear(ctx context.Context) error
	Ready() bool
}

// DocumentRemover deletes one ingested document by filename.
type DocumentRemover interface {
	RemoveDocument(ctx context.Context, filename string) error
}

// StatsHandler serves corpus statistics.
type StatsHandler struct {
	stats   StatsProvider
	session Corpus
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsProvider, session Corpus) *StatsHandler {
	return &StatsHandler{stats: stats, session: session}
}

// StatsResponse represents the corpus statistics payload.
//
// swagger:model StatsResponse
type StatsResponse struct {
	TotalDocuments int  `json:"total_documents"`
	TotalChunks    int  `json:"total_chunks"`
	IndexReady     bool `json:"index_ready"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read corpus stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read corpus statistics")
		return
	}

	resp := StatsResponse{
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
		IndexReady:     h.session.Ready(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// ClearHandler removes every indexed document.
type ClearHandler struct {
	session Corpus
}

// NewClearHandler creates a new ClearHandler.
func NewClearHandler(session Corpus) *ClearHandler {
	return &ClearHandler{session: session}
}

// ClearResponse represents the clear confirmation payload.
//
// swagger:model ClearResponse
type ClearResponse struct {
	Message string `json:"message"`
}

func (h *ClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodDelete {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := h.session.Clear(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to clear corpus", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear documents")
		return
	}

	logger.InfoContext(ctx, "corpus cleared")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ClearResponse{Message: "All documents cleared"}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// RemoveHandler deletes one document by filename.
type RemoveHandler struct {
	remover DocumentRemover
}

// NewRemoveHandler creates a new RemoveHandler.
func NewRemoveHandler(remover DocumentRemover) *RemoveHandler {
	return &RemoveHandler{remover: remover}
}

// RemoveResponse represents the single-document removal payload.
//
// swagger:model RemoveResponse
type RemoveResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

func (h *RemoveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodDelete {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filename := chi.URLParam(r, "filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	if err := h.remover.RemoveDocument(ctx, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.InfoContext(ctx, "document not found", "filename", filename)
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		logger.ErrorContext(ctx, "failed to remove document", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove document")
		return
	}

	logger.InfoContext(ctx, "document removed", "filename", filename)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RemoveResponse{Message: "Document removed", Filename: filename}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
