package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
)

// Asker answers questions against the indexed corpus.
type Asker interface {
	Ask(ctx context.Context, req qa.AskRequest) (qa.AskResponse, error)
}

// AskHandler handles HTTP requests for question answering.
type AskHandler struct {
	session Asker
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(session Asker) *AskHandler {
	return &AskHandler{session: session}
}

// AskRequest represents the HTTP request payload for questions.
// This mirrors qa.AskRequest but is defined here for HTTP layer separation.
//
// swagger:model AskRequest
type AskRequest struct {
	Question  string  `json:"question"`
	Threshold float64 `json:"threshold,omitempty"`
}

// CitationResponse represents one cited source in the HTTP response.
//
// swagger:model CitationResponse
type CitationResponse struct {
	// Name of the source PDF
	Filename string `json:"filename"`

	// 1-based page number, omitted when unknown
	Page *int `json:"page,omitempty"`

	// Chunk index within its page
	ChunkID int `json:"chunk_id"`

	// Full text of the cited chunk
	ContentPreview string `json:"content_preview"`

	// Lexical relevance score in [0, 1]
	RelevanceScore float64 `json:"relevance_score"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// Ranked source citations, at most five
	Citations []CitationResponse `json:"citations"`

	// Descriptive failure string, empty on success
	Error string `json:"error,omitempty"`

	// Number of chunks fetched from the index
	RetrievalCount int `json:"retrieval_count,omitempty"`

	// Number of chunks that passed similarity filtering
	RelevantCount int `json:"relevant_count,omitempty"`

	// Normalized query used for retrieval
	ProcessedQuery string `json:"processed_query,omitempty"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for question answering.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about the uploaded documents
//
// Runs the full retrieval and generation cycle and returns the answer
// together with ranked source citations.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with citations (may carry an in-band error string)
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Bad request (missing question or invalid threshold)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding or generation service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Vector store unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		logger.WarnContext(ctx, "threshold out of range", "threshold", req.Threshold)
		writeError(w, http.StatusBadRequest, "Threshold must be between 0 and 1")
		return
	}

	qaResp, err := h.session.Ask(ctx, qa.AskRequest{
		Question:  req.Question,
		Threshold: req.Threshold,
	})
	if err != nil {
		h.handleAskError(w, ctx, err, "Failed to process question")
		return
	}

	citations := make([]CitationResponse, len(qaResp.Citations))
	for i, c := range qaResp.Citations {
		citations[i] = CitationResponse{
			Filename:       c.Filename,
			Page:           c.Page,
			ChunkID:        c.ChunkID,
			ContentPreview: c.ContentPreview,
			RelevanceScore: c.RelevanceScore,
		}
	}

	resp := AskResponse{
		Answer:         qaResp.Answer,
		Citations:      citations,
		Error:          qaResp.Error,
		RetrievalCount: qaResp.RetrievalCount,
		RelevantCount:  qaResp.RelevantCount,
		ProcessedQuery: qaResp.ProcessedQuery,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

// handleAskError maps pipeline errors to appropriate HTTP status codes.
func (h *AskHandler) handleAskError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "ask pipeline error", "error", err)

	errMsg := strings.ToLower(err.Error())

	// Vector store errors -> 503
	if strings.Contains(errMsg, "vector search") ||
		strings.Contains(errMsg, "qdrant") ||
		strings.Contains(errMsg, "chunk store") {
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	// Embedding/generation service errors -> 502
	if strings.Contains(errMsg, "embed") ||
		strings.Contains(errMsg, "generation") {
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	writeError(w, http.StatusInternalServerError, defaultMsg)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
