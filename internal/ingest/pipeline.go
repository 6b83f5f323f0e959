package ingest

import (
	"context"
	"fmt"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
)

// DocumentAdder receives the chunks of an ingested document.
type DocumentAdder interface {
	AddDocuments(ctx context.Context, chunks []qa.Chunk) error
}

// Result summarizes one ingested PDF.
type Result struct {
	Filename   string `json:"filename"`
	NumPages   int    `json:"num_pages"`
	ChunkCount int    `json:"chunk_count"`
}

// Pipeline turns a PDF file into indexed chunks: extract page text,
// split it, and hand the chunks to the sink.
type Pipeline struct {
	sink     DocumentAdder
	splitter *Splitter
}

// NewPipeline creates an ingestion pipeline feeding the given sink.
func NewPipeline(sink DocumentAdder, splitter *Splitter) *Pipeline {
	return &Pipeline{sink: sink, splitter: splitter}
}

// IngestFile processes the PDF at path. filename is the user-facing
// source name recorded on every chunk (the upload name, not the temp
// path).
func (p *Pipeline) IngestFile(ctx context.Context, path, filename string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	pages, err := ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %q: %w", filename, err)
	}

	chunks := chunksFromPages(pages, filename, p.splitter)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %q", filename)
	}

	if err := p.sink.AddDocuments(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index %q: %w", filename, err)
	}

	result := &Result{
		Filename:   filename,
		NumPages:   len(pages),
		ChunkCount: len(chunks),
	}
	logger.InfoContext(ctx, "document ingested",
		"filename", filename,
		"pages", result.NumPages,
		"chunks", result.ChunkCount,
	)
	return result, nil
}

// chunksFromPages splits each page and attaches source metadata. Chunk
// IDs restart at zero on every page.
func chunksFromPages(pages []PageText, filename string, splitter *Splitter) []qa.Chunk {
	var chunks []qa.Chunk
	for _, page := range pages {
		pageNum := page.Number
		for i, text := range splitter.Split(page.Text) {
			chunks = append(chunks, qa.Chunk{
				Text:           text,
				SourceFilename: filename,
				Page:           &pageNum,
				ChunkID:        i,
				ChunkSize:      len(text),
			})
		}
	}
	return chunks
}
