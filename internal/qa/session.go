package qa

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
)

const (
	// DefaultThreshold is the similarity cutoff used when a request does
	// not specify one.
	DefaultThreshold = 0.6

	noDocumentsAnswer = "No documents have been loaded. Please upload some PDF documents first."
	noIndexError      = "No QA chain available"
)

// Session owns the question-answering lifecycle over one chunk store.
// It moves between two states: no index (nothing ingested yet) and
// ready. Ask calls take shared access; ingestion and clearing take
// exclusive access, so index mutations never interleave with in-flight
// questions. Construct one per process and pass it by reference.
type Session struct {
	mu    sync.RWMutex
	ready bool

	store     ChunkStore
	generator Generator
}

// NewSession creates a session over the given chunk store and generator.
// The session starts in the no-index state; call Restore to pick up a
// previously persisted corpus.
func NewSession(store ChunkStore, generator Generator) *Session {
	return &Session{
		store:     store,
		generator: generator,
	}
}

func (s *Session) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx)
}

// Restore transitions the session to ready if the underlying store
// already holds indexed chunks. A store that cannot be read is surfaced
// as an error rather than silently treated as empty.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, err := s.store.Size(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chunk store: %w", err)
	}

	s.ready = size > 0
	s.getLogger(ctx).InfoContext(ctx, "session restored", "ready", s.ready, "chunks", size)
	return nil
}

// AddDocuments indexes new chunks and transitions the session to ready.
func (s *Session) AddDocuments(ctx context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Add(ctx, chunks); err != nil {
		return fmt.Errorf("failed to add chunks: %w", err)
	}

	s.ready = true
	s.getLogger(ctx).InfoContext(ctx, "documents added", "chunks", len(chunks))
	return nil
}

// RemoveDocument deletes one ingested document and its chunks. The
// session drops back to the no-index state when the last document goes.
func (s *Session) RemoveDocument(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, filename); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	size, err := s.store.Size(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chunk store: %w", err)
	}
	s.ready = size > 0

	s.getLogger(ctx).InfoContext(ctx, "document removed", "filename", filename, "ready", s.ready)
	return nil
}

// Clear removes every indexed document and returns the session to the
// no-index state.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear chunk store: %w", err)
	}

	s.ready = false
	s.getLogger(ctx).InfoContext(ctx, "all documents cleared")
	return nil
}

// Ready reports whether any documents have been ingested.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Ask answers a question over the indexed corpus.
//
// The cycle is: normalize the question, plan the retrieval count, fetch
// the nearest chunks, generate an answer from their content, re-filter
// chunks for citation purposes against the normalized query, then rank
// citations against the raw question and the generated answer.
//
// A missing index and a generation failure are reported in the response
// Error field; the returned error is reserved for retrieval
// infrastructure failures.
func (s *Session) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logger := s.getLogger(ctx)

	if !s.ready {
		logger.InfoContext(ctx, "ask with no documents indexed")
		return AskResponse{
			Answer:    noDocumentsAnswer,
			Citations: []Citation{},
			Error:     noIndexError,
		}, nil
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	processedQuery := NormalizeQuery(req.Question)
	retrievalCount := PlanRetrievalCount(req.Question)
	logger.InfoContext(ctx, "ask started",
		"question", req.Question,
		"processed_query", processedQuery,
		"retrieval_count", retrievalCount,
		"threshold", threshold,
	)

	scored, err := s.store.Nearest(ctx, processedQuery, retrievalCount)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResponse{}, fmt.Errorf("failed to retrieve chunks: %w", err)
	}

	candidates := make([]Chunk, 0, len(scored))
	for _, sc := range scored {
		candidates = append(candidates, sc.Chunk)
	}

	answer, err := s.generator.Generate(ctx, candidates, processedQuery)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return AskResponse{
			Answer:         answer,
			Citations:      []Citation{},
			Error:          fmt.Sprintf("generation failed: %v", err),
			RetrievalCount: retrievalCount,
			ProcessedQuery: processedQuery,
		}, nil
	}

	relevant := s.filterRelevant(ctx, candidates, processedQuery, threshold)
	citations := RankCitations(relevant, req.Question, answer)

	logger.InfoContext(ctx, "ask completed",
		"retrieved", len(candidates),
		"relevant", len(relevant),
		"citations", len(citations),
		"answer_length", len(answer),
	)

	return AskResponse{
		Answer:         answer,
		Citations:      citations,
		RetrievalCount: retrievalCount,
		RelevantCount:  len(relevant),
		ProcessedQuery: processedQuery,
	}, nil
}
