package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/ingest"
)

// Ingester processes an uploaded PDF file into the index.
type Ingester interface {
	IngestFile(ctx context.Context, path, filename string) (*ingest.Result, error)
}

// UploadHandler handles PDF uploads.
type UploadHandler struct {
	pipeline       Ingester
	maxUploadBytes int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(pipeline Ingester, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		pipeline:       pipeline,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse represents the HTTP response for a successful upload.
//
// swagger:model UploadResponse
type UploadResponse struct {
	Filename   string `json:"filename"`
	NumPages   int    `json:"num_pages"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

// ServeHTTP handles multipart PDF uploads on POST /api/v1/documents.
// The PDF library reads from a file path, so the upload is spooled to a
// temp file first.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.WarnContext(ctx, "upload too large", "limit_bytes", h.maxUploadBytes)
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20))
			return
		}
		logger.WarnContext(ctx, "failed to parse multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file field", "error", err)
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		logger.WarnContext(ctx, "rejected non-PDF upload", "filename", filename)
		writeError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		logger.ErrorContext(ctx, "failed to create temp file", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		logger.ErrorContext(ctx, "failed to save upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	result, err := h.pipeline.IngestFile(ctx, tmp.Name(), filename)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "filename", filename, "error", err)
		if strings.Contains(strings.ToLower(err.Error()), "extract") {
			writeError(w, http.StatusBadRequest, "Could not extract text from the PDF")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to index the document")
		return
	}

	resp := UploadResponse{
		Filename:   result.Filename,
		NumPages:   result.NumPages,
		ChunkCount: result.ChunkCount,
		Message:    fmt.Sprintf("Indexed %d chunks from %s", result.ChunkCount, result.Filename),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
