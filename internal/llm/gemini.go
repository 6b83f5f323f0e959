package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dkleitsas/RAG-PDF-Assistant/internal/contextutil"
	"github.com/dkleitsas/RAG-PDF-Assistant/internal/qa"
)

// answerPromptTemplate constrains generation to the retrieved context.
// Citation construction is entirely the caller's responsibility, so the
// model is told never to cite sources itself.
const answerPromptTemplate = `You are a helpful AI assistant that answers questions based on the provided context from PDF documents.

Context information:
%s

Question: %s

Instructions:
1. Answer the question based ONLY on the provided context
2. If the context doesn't contain enough information to answer the question, say "I don't have enough information to answer this question based on the provided documents."
3. DO NOT include any citations, source references, document names, or page numbers in your answer
4. Provide a clean, direct answer without mentioning where the information came from
5. Be accurate and concise in your responses
6. If you're unsure about something, acknowledge the uncertainty
7. Focus on the most relevant information from the context
8. If multiple sources provide conflicting information, mention this but do not cite the specific sources

Answer:`

// NewGeminiClient creates the shared Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Client generates answers with a Gemini model. It implements the
// qa.Generator contract.
type Client struct {
	model *genai.GenerativeModel
	name  string
}

// NewClient creates a generation client for the given model name.
func NewClient(gemini *genai.Client, model string, temperature float32) *Client {
	gm := gemini.GenerativeModel(model)
	gm.SetTemperature(temperature)
	return &Client{
		model: gm,
		name:  model,
	}
}

// Generate answers a question from the supplied context chunks.
func (c *Client) Generate(ctx context.Context, contextChunks []qa.Chunk, question string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := fmt.Sprintf(answerPromptTemplate, formatContext(contextChunks), question)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	answer, err := extractText(resp)
	if err != nil {
		return "", err
	}

	logger.DebugContext(ctx, "generation completed", "model", c.name, "answer_length", len(answer))
	return answer, nil
}

// formatContext renders the retrieved chunks into the prompt context
// block. Source names are included for the model's benefit only; the
// instructions forbid echoing them.
func formatContext(chunks []qa.Chunk) string {
	if len(chunks) == 0 {
		return "(no context retrieved)"
	}

	var builder strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("[Document: %s]\n", chunk.SourceFilename))
		builder.WriteString(chunk.Text)
	}
	return builder.String()
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("candidate has no content (finish reason: %v)", candidate.FinishReason)
	}

	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	answer := strings.TrimSpace(builder.String())
	if answer == "" {
		return "", fmt.Errorf("candidate contained no text parts")
	}
	return answer, nil
}
