package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/storage"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/vectorstore"
)

// Embedder computes embedding vectors for texts, preserving input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Store indexes chunks across two backends: vectors live in Qdrant,
// chunk text and document metadata live in SQLite, joined by the point
// ID. It implements qa.ChunkStore.
type Store struct {
	vectors    vectorstore.VectorStore
	chunks     storage.ChunkStore
	documents  storage.DocumentStore
	embedder   Embedder
	collection string
}

// NewStore creates a chunk store over the given backends.
func NewStore(vectors vectorstore.VectorStore, chunks storage.ChunkStore, documents storage.DocumentStore, embedder Embedder, collection string) *Store {
	return &Store{
		vectors:    vectors,
		chunks:     chunks,
		documents:  documents,
		embedder:   embedder,
		collection: collection,
	}
}

// Add embeds and indexes a batch of chunks, registering their source
// documents. All chunks in one call are embedded in a single batch
// request.
func (s *Store) Add(ctx context.Context, chunks []qa.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docIDs, err := s.registerDocuments(ctx, chunks)
	if err != nil {
		return err
	}

	points := make([]vectorstore.Point, 0, len(chunks))
	records := make([]*storage.ChunkRecord, 0, len(chunks))
	for i, chunk := range chunks {
		pointID := uuid.NewString()

		meta := map[string]any{
			"filename":    chunk.SourceFilename,
			"chunk_index": chunk.ChunkID,
			"chunk_size":  chunk.ChunkSize,
		}
		if chunk.Page != nil {
			meta["page"] = *chunk.Page
		}

		points = append(points, vectorstore.Point{
			ID:   pointID,
			Vec:  vectors[i],
			Meta: meta,
		})
		records = append(records, &storage.ChunkRecord{
			PointID:    pointID,
			DocumentID: docIDs[chunk.SourceFilename],
			Filename:   chunk.SourceFilename,
			Page:       chunk.Page,
			ChunkIndex: chunk.ChunkID,
			ChunkSize:  chunk.ChunkSize,
			Text:       chunk.Text,
		})
	}

	if err := s.vectors.Upsert(ctx, s.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	if err := s.chunks.InsertBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to store chunk records: %w", err)
	}

	logger.InfoContext(ctx, "chunks indexed", "count", len(chunks), "documents", len(docIDs))
	return nil
}

// registerDocuments upserts one document record per distinct filename in
// the batch and returns the document ID for each filename. Re-ingesting
// a filename reuses its existing document ID.
func (s *Store) registerDocuments(ctx context.Context, chunks []qa.Chunk) (map[string]string, error) {
	type docInfo struct {
		maxPage    int
		chunkCount int
	}
	infos := make(map[string]*docInfo)
	for _, chunk := range chunks {
		info, ok := infos[chunk.SourceFilename]
		if !ok {
			info = &docInfo{}
			infos[chunk.SourceFilename] = info
		}
		info.chunkCount++
		if chunk.Page != nil && *chunk.Page > info.maxPage {
			info.maxPage = *chunk.Page
		}
	}

	docIDs := make(map[string]string, len(infos))
	for filename, info := range infos {
		docID := ""
		existing, err := s.documents.GetByFilename(ctx, filename)
		switch {
		case err == nil:
			docID = existing.ID
		case errors.Is(err, storage.ErrNotFound):
			docID = uuid.NewString()
		default:
			return nil, fmt.Errorf("failed to look up document %q: %w", filename, err)
		}

		err = s.documents.Upsert(ctx, &storage.DocumentRecord{
			ID:         docID,
			Filename:   filename,
			NumPages:   info.maxPage,
			ChunkCount: info.chunkCount,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register document %q: %w", filename, err)
		}
		docIDs[filename] = docID
	}
	return docIDs, nil
}

// Nearest returns up to k chunks closest to the query, best first.
// Qdrant reports cosine similarity (higher is better); it is converted
// here to a non-negative distance where lower is better.
func (s *Store) Nearest(ctx context.Context, query string, k int) ([]qa.ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, nil
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	results, err := s.vectors.Search(ctx, s.collection, vectors[0], k, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	scored := make([]qa.ScoredChunk, 0, len(results))
	for _, result := range results {
		record, err := s.chunks.GetByPointID(ctx, result.PointID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Vector without a text row: the two stores drifted.
				// Skip the hit rather than fail the whole query.
				logger.WarnContext(ctx, "vector hit has no stored text", "point_id", result.PointID)
				continue
			}
			return nil, fmt.Errorf("failed to load chunk text: %w", err)
		}

		scored = append(scored, qa.ScoredChunk{
			Chunk:    recordToChunk(record),
			Distance: scoreToDistance(result.Score),
		})
	}
	return scored, nil
}

// Size returns the number of indexed chunks.
func (s *Store) Size(ctx context.Context) (int, error) {
	count, err := s.chunks.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Remove deletes one document's vectors, chunk records, and registry
// entry. Removing an unknown filename surfaces storage.ErrNotFound.
func (s *Store) Remove(ctx context.Context, filename string) error {
	doc, err := s.documents.GetByFilename(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to look up document %q: %w", filename, err)
	}

	pointIDs, err := s.chunks.PointIDsByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to list document chunks: %w", err)
	}

	if len(pointIDs) > 0 {
		if err := s.vectors.Delete(ctx, s.collection, pointIDs); err != nil {
			return fmt.Errorf("failed to delete vectors: %w", err)
		}
	}
	if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete chunk records: %w", err)
	}
	if err := s.documents.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document removed",
		"filename", filename, "chunks", len(pointIDs))
	return nil
}

// Clear removes every indexed chunk and document from both backends.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.vectors.DeleteAll(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to clear vector store: %w", err)
	}
	if err := s.chunks.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear chunk records: %w", err)
	}
	if err := s.documents.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear document registry: %w", err)
	}
	return nil
}

// Stats reports corpus-level counts for the stats endpoint.
func (s *Store) Stats(ctx context.Context) (qa.StoreStats, error) {
	docs, err := s.documents.Count(ctx)
	if err != nil {
		return qa.StoreStats{}, fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := s.chunks.Count(ctx)
	if err != nil {
		return qa.StoreStats{}, fmt.Errorf("failed to count chunks: %w", err)
	}
	return qa.StoreStats{TotalDocuments: docs, TotalChunks: chunks}, nil
}

func recordToChunk(record *storage.ChunkRecord) qa.Chunk {
	filename := record.Filename
	if filename == "" {
		filename = "Unknown"
	}
	return qa.Chunk{
		Text:           record.Text,
		SourceFilename: filename,
		Page:           record.Page,
		ChunkID:        record.ChunkIndex,
		ChunkSize:      record.ChunkSize,
	}
}

// scoreToDistance maps a cosine similarity score to a non-negative
// distance where lower means more similar.
func scoreToDistance(score float32) float64 {
	d := 1.0 - float64(score)
	if d < 0 {
		return 0
	}
	return d
}
