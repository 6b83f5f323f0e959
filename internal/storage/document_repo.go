package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks github.com/dkleitsas/RAG-PDF-Assistant/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// Upsert inserts a document record. Re-uploading a filename refreshes
	// its page count and adds the new chunks to its chunk count.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// GetByFilename gets a document by filename. Returns ErrNotFound if
	// no such document exists.
	GetByFilename(ctx context.Context, filename string) (*DocumentRecord, error)
	// Count returns the number of registered documents.
	Count(ctx context.Context) (int, error)
	// Delete removes one document record by ID.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every document record.
	DeleteAll(ctx context.Context) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts a document record. On a filename conflict the page
// count is replaced and the chunk count accumulates, so repeated
// ingests of the same file keep the registry in step with the chunks
// actually indexed.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, num_pages, chunk_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET num_pages = excluded.num_pages, chunk_count = chunk_count + excluded.chunk_count`,
		doc.ID, doc.Filename, doc.NumPages, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetByFilename gets a document by filename. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByFilename(ctx context.Context, filename string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, filename, num_pages, chunk_count, created_at FROM documents WHERE filename = ?",
		filename,
	).Scan(&doc.ID, &doc.Filename, &doc.NumPages, &doc.ChunkCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// Count returns the number of registered documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Delete removes one document record by ID.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteAll removes every document record.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}
