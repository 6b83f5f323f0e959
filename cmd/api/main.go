package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"strings"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/config"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/http"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/ingest"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/llm"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/retrieval"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/storage"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about uploaded PDF documents using retrieval-augmented generation.
// Upload PDFs, then ask questions; answers come with ranked source citations.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: RAG PDF Assistant API
//   description: |
//     Question answering over uploaded PDF documents. Documents are split into
//     chunks and indexed in a vector store; questions are answered from the
//     retrieved chunks and returned with page-level source citations.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	chunkRepo := storage.NewChunkRepo(db)
	documentRepo := storage.NewDocumentRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Create the shared Gemini client
	geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer func() {
		_ = geminiClient.Close()
	}()

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(geminiClient, cfg.EmbeddingModel, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModel, "vector_size", cfg.QdrantVectorSize)

	// Create the generation client and the chunk store
	generator := llm.NewClient(geminiClient, cfg.GeminiModel, cfg.GeminiTemperature)
	chunkStore := retrieval.NewStore(vectorStore, chunkRepo, documentRepo, embedder, cfg.QdrantCollection)

	// Create the QA session and restore index readiness from the database
	session := qa.NewSession(chunkStore, generator)
	if err := session.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore session state: %v", err)
	}
	slog.Info("QA session initialized", "index_ready", session.Ready())

	// Create the ingestion pipeline
	pipeline := ingest.NewPipeline(session, ingest.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap))

	// Create router with dependencies
	deps := &http.Deps{
		Session:        session,
		Corpus:         session,
		Remover:        session,
		Stats:          chunkStore,
		Pipeline:       pipeline,
		VectorStore:    vectorStore,
		DB:             db,
		CollectionName: cfg.QdrantCollection,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Generation configuration", "model", cfg.GeminiModel, "temperature", cfg.GeminiTemperature)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

// parseLogLevel maps a level name to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
