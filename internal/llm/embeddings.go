package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
)

// EmbeddingsClient computes text embeddings with a Gemini embedding
// model. Every embedding is validated against the expected vector size
// so a model/collection mismatch fails loudly instead of corrupting the
// index.
type EmbeddingsClient struct {
	model        *genai.EmbeddingModel
	name         string
	expectedSize int
}

// NewEmbeddingsClient creates an embeddings client for the given model.
// expectedSize must match the vector size of the target collection.
func NewEmbeddingsClient(gemini *genai.Client, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		model:        gemini.EmbeddingModel(model),
		name:         model,
		expectedSize: expectedSize,
	}
}

// EmbedTexts embeds the given texts in one batch request, preserving
// input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) == 0 {
		return nil, nil
	}

	batch := c.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := c.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d embeddings", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		if c.expectedSize > 0 && len(embedding.Values) != c.expectedSize {
			return nil, fmt.Errorf("embedding vector size mismatch: expected %d, got %d", c.expectedSize, len(embedding.Values))
		}
		vectors = append(vectors, embedding.Values)
	}

	logger.DebugContext(ctx, "texts embedded", "model", c.name, "count", len(vectors))
	return vectors, nil
}
