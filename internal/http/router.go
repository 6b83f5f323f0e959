package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Session        handlers.Asker
	Corpus         handlers.Corpus
	Remover        handlers.DocumentRemover
	Stats          handlers.StatsProvider
	Pipeline       handlers.Ingester
	VectorStore    handlers.CollectionChecker
	DB             *sql.DB
	CollectionName string
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Session)
	uploadHandler := handlers.NewUploadHandler(deps.Pipeline, deps.MaxUploadBytes)
	statsHandler := handlers.NewStatsHandler(deps.Stats, deps.Corpus)
	clearHandler := handlers.NewClearHandler(deps.Corpus)
	removeHandler := handlers.NewRemoveHandler(deps.Remover)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.DB, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Method(http.MethodPost, "/documents", uploadHandler)
			r.Method(http.MethodDelete, "/documents", clearHandler)
			r.Method(http.MethodDelete, "/documents/{filename}", removeHandler)
			r.Method(http.MethodGet, "/documents/stats", statsHandler)
		})
	})

	return r
}
