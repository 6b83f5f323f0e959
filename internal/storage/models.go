package storage

import "time"

// DocumentRecord represents one ingested PDF document.
type DocumentRecord struct {
	ID         string // UUID
	Filename   string // Base name of the uploaded PDF
	NumPages   int    // Pages that produced text
	ChunkCount int    // Chunks created from the document
	CreatedAt  time.Time
}

// ChunkRecord represents one indexed text chunk. PointID doubles as the
// Qdrant point ID so vector hits can be joined back to their text.
type ChunkRecord struct {
	PointID    string // UUID (same as the vector store point ID)
	DocumentID string // UUID (foreign key to documents.id)
	Filename   string // Source PDF name, denormalized for citation building
	Page       *int   // 1-based page number, nil when unknown
	ChunkIndex int    // Chunk index within its page (starts at 0)
	ChunkSize  int    // Chunk length in bytes at split time
	Text       string // Chunk text content
}
