package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newDocumentRepo(t *testing.T) *DocumentRepo {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewDocumentRepo(db)
}

func TestDocumentRepo_UpsertAndGet(t *testing.T) {
	repo := newDocumentRepo(t)
	ctx := context.Background()

	doc := &DocumentRecord{
		ID:         "doc-1",
		Filename:   "manual.pdf",
		NumPages:   10,
		ChunkCount: 40,
	}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByFilename(ctx, "manual.pdf")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if got.ID != "doc-1" || got.NumPages != 10 || got.ChunkCount != 40 {
		t.Errorf("GetByFilename() = %+v, want id=doc-1 pages=10 chunks=40", got)
	}
}

func TestDocumentRepo_UpsertSameFilenameAccumulatesChunks(t *testing.T) {
	repo := newDocumentRepo(t)
	ctx := context.Background()

	first := &DocumentRecord{ID: "doc-1", Filename: "manual.pdf", NumPages: 10, ChunkCount: 40}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &DocumentRecord{ID: "doc-2", Filename: "manual.pdf", NumPages: 12, ChunkCount: 8}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}

	got, err := repo.GetByFilename(ctx, "manual.pdf")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	// Re-uploading the same file keeps one registry row and accumulates chunks.
	if got.ID != "doc-1" {
		t.Errorf("GetByFilename() ID = %q, want original doc-1", got.ID)
	}
	if got.NumPages != 12 {
		t.Errorf("GetByFilename() NumPages = %d, want 12", got.NumPages)
	}
	if got.ChunkCount != 48 {
		t.Errorf("GetByFilename() ChunkCount = %d, want 48", got.ChunkCount)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestDocumentRepo_GetByFilename_NotFound(t *testing.T) {
	repo := newDocumentRepo(t)

	_, err := repo.GetByFilename(context.Background(), "missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByFilename() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Delete(t *testing.T) {
	repo := newDocumentRepo(t)
	ctx := context.Background()

	for _, doc := range []*DocumentRecord{
		{ID: "doc-1", Filename: "manual.pdf", NumPages: 1, ChunkCount: 1},
		{ID: "doc-2", Filename: "report.pdf", NumPages: 1, ChunkCount: 1},
	} {
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	if err := repo.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.GetByFilename(ctx, "manual.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByFilename() error = %v, want ErrNotFound", err)
	}
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after Delete = %d, want 1", count)
	}
}

func TestDocumentRepo_DeleteAll(t *testing.T) {
	repo := newDocumentRepo(t)
	ctx := context.Background()

	doc := &DocumentRecord{ID: "doc-1", Filename: "manual.pdf", NumPages: 1, ChunkCount: 1}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after DeleteAll = %d, want 0", count)
	}
}
