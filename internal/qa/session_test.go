package qa

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeChunkStore implements ChunkStore with per-call configurable
// retrieval behavior.
type fakeChunkStore struct {
	nearestFn    func(query string, k int) ([]ScoredChunk, error)
	nearestCalls []int

	size    int
	sizeErr error

	added    [][]Chunk
	addErr   error
	removed  []string
	removeFn func(filename string) error
	cleared  bool
	clearErr error
}

func (f *fakeChunkStore) Add(_ context.Context, chunks []Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks)
	return nil
}

func (f *fakeChunkStore) Nearest(_ context.Context, query string, k int) ([]ScoredChunk, error) {
	f.nearestCalls = append(f.nearestCalls, k)
	if f.nearestFn == nil {
		return nil, nil
	}
	return f.nearestFn(query, k)
}

func (f *fakeChunkStore) Size(context.Context) (int, error) {
	return f.size, f.sizeErr
}

func (f *fakeChunkStore) Remove(_ context.Context, filename string) error {
	if f.removeFn != nil {
		if err := f.removeFn(filename); err != nil {
			return err
		}
	}
	f.removed = append(f.removed, filename)
	return nil
}

func (f *fakeChunkStore) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

// fakeGenerator implements Generator.
type fakeGenerator struct {
	answer    string
	err       error
	gotQuery  string
	gotChunks []Chunk
}

func (f *fakeGenerator) Generate(_ context.Context, chunks []Chunk, question string) (string, error) {
	f.gotChunks = chunks
	f.gotQuery = question
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func readySession(t *testing.T, store *fakeChunkStore, gen *fakeGenerator) *Session {
	t.Helper()
	s := NewSession(store, gen)
	if err := s.AddDocuments(context.Background(), []Chunk{{Text: "seed", SourceFilename: "seed.pdf"}}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	return s
}

func TestAskNoIndex(t *testing.T) {
	s := NewSession(&fakeChunkStore{}, &fakeGenerator{})

	resp, err := s.Ask(context.Background(), AskRequest{Question: "anything at all"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Answer != "No documents have been loaded. Please upload some PDF documents first." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if resp.Error != "No QA chain available" {
		t.Errorf("Error = %q", resp.Error)
	}
	if resp.Citations == nil || len(resp.Citations) != 0 {
		t.Errorf("Citations = %v, want empty non-nil", resp.Citations)
	}
}

func TestAskFullCycle(t *testing.T) {
	relevantChunk := Chunk{
		Text:           "Revenue grew 12% in the third quarter driven by subscriptions.",
		SourceFilename: "report.pdf",
		ChunkID:        1,
	}
	otherChunk := Chunk{
		Text:           "Employee onboarding procedures and office policies.",
		SourceFilename: "handbook.pdf",
	}

	store := &fakeChunkStore{
		nearestFn: func(_ string, k int) ([]ScoredChunk, error) {
			return []ScoredChunk{
				{Chunk: relevantChunk, Distance: 0},
				{Chunk: otherChunk, Distance: 0.2},
			}, nil
		},
	}
	gen := &fakeGenerator{answer: "Revenue grew strongly in the third quarter."}
	s := readySession(t, store, gen)
	store.nearestCalls = nil

	question := "What does the annual report say about revenue growth?"
	resp, err := s.Ask(context.Background(), AskRequest{Question: question})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Answer != gen.answer {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if resp.Error != "" {
		t.Errorf("Error = %q, want empty", resp.Error)
	}

	// Nine words plans a retrieval count of 7; the citation re-query
	// asks for twice the candidate count.
	if resp.RetrievalCount != 7 {
		t.Errorf("RetrievalCount = %d, want 7", resp.RetrievalCount)
	}
	if len(store.nearestCalls) != 2 || store.nearestCalls[0] != 7 || store.nearestCalls[1] != 4 {
		t.Errorf("nearest calls = %v, want [7 4]", store.nearestCalls)
	}

	// Generation is conditioned on the normalized query.
	wantQuery := NormalizeQuery(question)
	if gen.gotQuery != wantQuery {
		t.Errorf("generator got query %q, want %q", gen.gotQuery, wantQuery)
	}
	if resp.ProcessedQuery != wantQuery {
		t.Errorf("ProcessedQuery = %q, want %q", resp.ProcessedQuery, wantQuery)
	}
	if len(gen.gotChunks) != 2 {
		t.Errorf("generator got %d chunks, want 2", len(gen.gotChunks))
	}

	// Distance 0 and 0.2 both clear the default threshold of 0.6.
	if resp.RelevantCount != 2 {
		t.Errorf("RelevantCount = %d, want 2", resp.RelevantCount)
	}

	if len(resp.Citations) != 1 {
		t.Fatalf("got %d citations, want 1: %+v", len(resp.Citations), resp.Citations)
	}
	if resp.Citations[0].Filename != "report.pdf" {
		t.Errorf("citation filename = %q", resp.Citations[0].Filename)
	}
}

func TestAskCustomThreshold(t *testing.T) {
	// Distance 0.2 gives similarity 1/1.2 = 0.833, which clears the
	// default threshold but not 0.9.
	chunk := Chunk{Text: "some text", SourceFilename: "a.pdf"}
	store := &fakeChunkStore{
		nearestFn: func(_ string, _ int) ([]ScoredChunk, error) {
			return []ScoredChunk{{Chunk: chunk, Distance: 0.2}}, nil
		},
	}
	s := readySession(t, store, &fakeGenerator{answer: "answer"})

	resp, err := s.Ask(context.Background(), AskRequest{Question: "question here", Threshold: 0.9})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// Nothing clears 0.9, so the fallback keeps the single candidate.
	if resp.RelevantCount != 1 {
		t.Errorf("RelevantCount = %d, want 1 (fallback)", resp.RelevantCount)
	}
}

func TestAskRetrievalError(t *testing.T) {
	store := &fakeChunkStore{
		nearestFn: func(_ string, _ int) ([]ScoredChunk, error) {
			return nil, errors.New("qdrant unreachable")
		},
	}
	s := readySession(t, store, &fakeGenerator{answer: "unused"})

	_, err := s.Ask(context.Background(), AskRequest{Question: "question"})
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to retrieve chunks") {
		t.Errorf("error = %v", err)
	}
}

func TestAskGenerationFailureIsInBand(t *testing.T) {
	store := &fakeChunkStore{
		nearestFn: func(_ string, _ int) ([]ScoredChunk, error) {
			return []ScoredChunk{{Chunk: Chunk{Text: "x", SourceFilename: "a.pdf"}}}, nil
		},
	}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	s := readySession(t, store, gen)

	resp, err := s.Ask(context.Background(), AskRequest{Question: "question"})
	if err != nil {
		t.Fatalf("generation failures must not surface as errors, got %v", err)
	}

	if !strings.Contains(resp.Error, "generation failed") || !strings.Contains(resp.Error, "model overloaded") {
		t.Errorf("Error = %q", resp.Error)
	}
	if len(resp.Citations) != 0 {
		t.Errorf("Citations = %v, want empty", resp.Citations)
	}
}

func TestFilterRelevantFallback(t *testing.T) {
	// Every re-queried chunk is too far away; the first three original
	// candidates come back unfiltered.
	candidates := []Chunk{
		{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"}, {Text: "five"},
	}
	store := &fakeChunkStore{
		nearestFn: func(_ string, k int) ([]ScoredChunk, error) {
			scored := make([]ScoredChunk, 0, len(candidates))
			for _, c := range candidates {
				scored = append(scored, ScoredChunk{Chunk: c, Distance: 5.0})
			}
			return scored, nil
		},
	}
	s := NewSession(store, &fakeGenerator{})

	got := s.filterRelevant(context.Background(), candidates, "query", DefaultThreshold)

	if len(got) != 3 {
		t.Fatalf("got %d chunks, want fallback of 3", len(got))
	}
	if got[0].Text != "one" || got[2].Text != "three" {
		t.Errorf("fallback should keep the first candidates in order: %+v", got)
	}
}

func TestFilterRelevantRequeryErrorFallsBack(t *testing.T) {
	candidates := []Chunk{{Text: "one"}, {Text: "two"}}
	store := &fakeChunkStore{
		nearestFn: func(_ string, _ int) ([]ScoredChunk, error) {
			return nil, errors.New("transient")
		},
	}
	s := NewSession(store, &fakeGenerator{})

	got := s.filterRelevant(context.Background(), candidates, "query", DefaultThreshold)

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want both candidates", len(got))
	}
}

func TestFilterRelevantNeverExceedsCandidates(t *testing.T) {
	candidates := []Chunk{{Text: "one"}, {Text: "two"}}
	store := &fakeChunkStore{
		nearestFn: func(_ string, k int) ([]ScoredChunk, error) {
			// The wider re-query surfaces more accepting chunks than the
			// original candidate set.
			scored := make([]ScoredChunk, 0, k)
			for i := 0; i < k; i++ {
				scored = append(scored, ScoredChunk{Chunk: Chunk{Text: "extra"}, Distance: 0})
			}
			return scored, nil
		},
	}
	s := NewSession(store, &fakeGenerator{})

	got := s.filterRelevant(context.Background(), candidates, "query", DefaultThreshold)

	if len(got) != len(candidates) {
		t.Errorf("got %d chunks, want at most %d", len(got), len(candidates))
	}
}

func TestFilterRelevantEmptyCandidates(t *testing.T) {
	store := &fakeChunkStore{}
	s := NewSession(store, &fakeGenerator{})

	if got := s.filterRelevant(context.Background(), nil, "query", DefaultThreshold); got != nil {
		t.Errorf("filterRelevant(nil) = %v, want nil", got)
	}
	if len(store.nearestCalls) != 0 {
		t.Error("store should not be queried for empty candidates")
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name      string
		store     *fakeChunkStore
		wantErr   bool
		wantReady bool
	}{
		{name: "populated store", store: &fakeChunkStore{size: 12}, wantReady: true},
		{name: "empty store", store: &fakeChunkStore{size: 0}, wantReady: false},
		{name: "unreadable store", store: &fakeChunkStore{sizeErr: errors.New("corrupt")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.store, &fakeGenerator{})

			err := s.Restore(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if s.Ready() != tt.wantReady {
				t.Errorf("Ready() = %v, want %v", s.Ready(), tt.wantReady)
			}
		})
	}
}

func TestAddDocumentsAndClear(t *testing.T) {
	store := &fakeChunkStore{}
	s := NewSession(store, &fakeGenerator{})

	if s.Ready() {
		t.Fatal("new session should not be ready")
	}

	chunks := []Chunk{{Text: "hello", SourceFilename: "a.pdf"}}
	if err := s.AddDocuments(context.Background(), chunks); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	if !s.Ready() {
		t.Error("session should be ready after AddDocuments")
	}
	if len(store.added) != 1 {
		t.Errorf("store received %d batches, want 1", len(store.added))
	}

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if s.Ready() {
		t.Error("session should not be ready after Clear")
	}
	if !store.cleared {
		t.Error("store was not cleared")
	}
}

func TestRemoveDocument(t *testing.T) {
	store := &fakeChunkStore{size: 5}
	s := readySession(t, store, &fakeGenerator{})

	if err := s.RemoveDocument(context.Background(), "a.pdf"); err != nil {
		t.Fatalf("RemoveDocument() error = %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != "a.pdf" {
		t.Errorf("store removed %v, want [a.pdf]", store.removed)
	}
	if !s.Ready() {
		t.Error("session should stay ready while chunks remain")
	}
}

func TestRemoveLastDocumentDropsReadiness(t *testing.T) {
	store := &fakeChunkStore{size: 0}
	s := readySession(t, store, &fakeGenerator{})

	if err := s.RemoveDocument(context.Background(), "only.pdf"); err != nil {
		t.Fatalf("RemoveDocument() error = %v", err)
	}
	if s.Ready() {
		t.Error("session should return to the no-index state when the last document goes")
	}
}

func TestRemoveDocumentErrorKeepsState(t *testing.T) {
	store := &fakeChunkStore{
		size:     5,
		removeFn: func(string) error { return errors.New("no such document") },
	}
	s := readySession(t, store, &fakeGenerator{})

	err := s.RemoveDocument(context.Background(), "missing.pdf")
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to remove document") {
		t.Errorf("error = %v", err)
	}
	if !s.Ready() {
		t.Error("a failed removal must not change session state")
	}
}

func TestAddDocumentsErrorKeepsState(t *testing.T) {
	store := &fakeChunkStore{addErr: errors.New("disk full")}
	s := NewSession(store, &fakeGenerator{})

	if err := s.AddDocuments(context.Background(), []Chunk{{Text: "x"}}); err == nil {
		t.Fatal("expected an error, got nil")
	}
	if s.Ready() {
		t.Error("session must stay in the no-index state after a failed add")
	}
}
