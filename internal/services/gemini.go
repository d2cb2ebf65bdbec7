package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// AIClient is the capability surface the pipeline needs from a model
// provider: one embedding operation and one text completion operation. Tests
// substitute deterministic fakes.
type AIClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

type geminiClient struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiClient(apiKey string) (AIClient, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client:     client,
		modelName:  "gemini-2.5-flash",
		embedModel: "text-embedding-004",
	}, nil
}

// GenerateEmbedding implements AIClient.
func (g *geminiClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, classifyUpstreamError(StageIndexing, err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, newPipelineError(StageIndexing, KindInvalidResponse, "empty embedding result", nil)
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements AIClient.
func (g *geminiClient) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", classifyUpstreamError(StageCompleting, err)
	}

	if resp == nil {
		return "", newPipelineError(StageCompleting, KindInvalidResponse, "nil completion response", nil)
	}

	text := resp.Text()
	if text == "" {
		return "", newPipelineError(StageCompleting, KindInvalidResponse, "no text content in completion response", nil)
	}

	return text, nil
}

// classifyUpstreamError sorts a provider failure into the transient kinds the
// retry logic understands. Anything that is not recognizably a rate limit is
// treated as the service being unavailable.
func classifyUpstreamError(stage Stage, err error) *PipelineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newPipelineError(stage, KindUnavailable, "upstream call timed out", err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") {
		return newPipelineError(stage, KindRateLimited, "upstream rate limited", err)
	}

	return newPipelineError(stage, KindUnavailable, "upstream call failed", err)
}
