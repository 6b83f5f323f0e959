package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks github.com/dkleitsas/RAG-PDF-Assistant/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk record storage.
type ChunkStore interface {
	// InsertBatch inserts chunk records in a single transaction.
	// Every record must have its PointID (UUID) set before calling.
	InsertBatch(ctx context.Context, chunks []*ChunkRecord) error
	// GetByPointID gets a chunk by its vector point ID. Returns
	// ErrNotFound if no such chunk exists.
	GetByPointID(ctx context.Context, pointID string) (*ChunkRecord, error)
	// PointIDsByDocument returns the vector point IDs of every chunk
	// belonging to the given document.
	PointIDsByDocument(ctx context.Context, documentID string) ([]string, error)
	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)
	// DeleteByDocument removes every chunk record of the given document.
	DeleteByDocument(ctx context.Context, documentID string) error
	// DeleteAll removes every chunk record.
	DeleteAll(ctx context.Context) error
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertBatch inserts chunk records in a single transaction.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []*ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (point_id, document_id, filename, page, chunk_index, chunk_size, text) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			chunk.PointID, chunk.DocumentID, chunk.Filename, chunk.Page,
			chunk.ChunkIndex, chunk.ChunkSize, chunk.Text,
		); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk batch: %w", err)
	}
	return nil
}

// GetByPointID gets a chunk by its vector point ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByPointID(ctx context.Context, pointID string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT point_id, document_id, filename, page, chunk_index, chunk_size, text FROM chunks WHERE point_id = ?",
		pointID,
	).Scan(&chunk.PointID, &chunk.DocumentID, &chunk.Filename, &chunk.Page, &chunk.ChunkIndex, &chunk.ChunkSize, &chunk.Text)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return &chunk, nil
}

// PointIDsByDocument returns the vector point IDs of every chunk
// belonging to the given document.
func (r *ChunkRepo) PointIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT point_id FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var pointIDs []string
	for rows.Next() {
		var pointID string
		if err := rows.Scan(&pointID); err != nil {
			return nil, fmt.Errorf("failed to scan point ID: %w", err)
		}
		pointIDs = append(pointIDs, pointID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document chunks: %w", err)
	}
	return pointIDs, nil
}

// Count returns the total number of stored chunks.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// DeleteByDocument removes every chunk record of the given document.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	return nil
}

// DeleteAll removes every chunk record.
func (r *ChunkRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
