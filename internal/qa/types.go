package qa

import "context"

// Chunk is an immutable unit of retrieved text with its source metadata.
// Chunks are produced by the ingestion pipeline and owned by the chunk
// store; the QA core only reads them.
type Chunk struct {
	// Text is the full chunk content.
	Text string `json:"text"`
	// SourceFilename is the name of the PDF the chunk came from.
	SourceFilename string `json:"source_filename"`
	// Page is the 1-based page number, nil when unknown.
	Page *int `json:"page,omitempty"`
	// ChunkID is the chunk index within its page.
	ChunkID int `json:"chunk_id"`
	// ChunkSize is the chunk length in bytes at split time.
	ChunkSize int `json:"chunk_size"`
}

// ScoredChunk pairs a chunk with its nearest-neighbor distance.
// Distance is non-negative; lower means more similar. The metric itself
// is opaque to the core.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}

// Citation is a ranked source reference attached to an answer.
type Citation struct {
	// Filename is the source PDF name ("Unknown" when metadata is missing).
	Filename string `json:"filename"`
	// Page is the 1-based page number, nil when unknown.
	Page *int `json:"page,omitempty"`
	// ChunkID is the chunk index within its page.
	ChunkID int `json:"chunk_id"`
	// ContentPreview is the full chunk text, untrimmed except for
	// surrounding whitespace. Showing the complete chunk preserves the
	// evidentiary context around the cited passage.
	ContentPreview string `json:"content_preview"`
	// RelevanceScore is the lexical-overlap relevance in [0, 1].
	RelevanceScore float64 `json:"relevance_score"`
}

// AskRequest represents one question against the indexed corpus.
type AskRequest struct {
	// Question is the user's raw question.
	Question string `json:"question"`
	// Threshold is the similarity cutoff for citation filtering.
	// Zero means "use the session default".
	Threshold float64 `json:"threshold,omitempty"`
}

// AskResponse is the result of one ask cycle.
type AskResponse struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Citations are the ranked source references, at most five.
	Citations []Citation `json:"citations"`
	// Error is a descriptive failure string, empty on success. A missing
	// index and a generation failure are both reported here rather than
	// as transport errors.
	Error string `json:"error,omitempty"`
	// RetrievalCount is the planned number of chunks fetched.
	RetrievalCount int `json:"retrieval_count,omitempty"`
	// RelevantCount is the number of chunks that survived filtering.
	RelevantCount int `json:"relevant_count,omitempty"`
	// ProcessedQuery is the normalized query used for retrieval.
	ProcessedQuery string `json:"processed_query,omitempty"`
}

// StoreStats summarizes the indexed corpus.
type StoreStats struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
}

// ChunkStore is the vector-backed chunk store collaborator. Distances
// returned by Nearest are non-negative with a lower-is-better contract.
type ChunkStore interface {
	// Add indexes new chunks.
	Add(ctx context.Context, chunks []Chunk) error
	// Nearest returns up to k chunks closest to the query.
	Nearest(ctx context.Context, query string, k int) ([]ScoredChunk, error)
	// Size returns the number of indexed chunks.
	Size(ctx context.Context) (int, error)
	// Remove deletes one document and its chunks by source filename.
	Remove(ctx context.Context, filename string) error
	// Clear removes all indexed chunks and documents.
	Clear(ctx context.Context) error
}

// Generator is the answer generation collaborator. Implementations must
// answer strictly from the supplied context chunks, admit when the
// context is insufficient, and never emit their own source citations.
type Generator interface {
	Generate(ctx context.Context, contextChunks []Chunk, question string) (string, error)
}
