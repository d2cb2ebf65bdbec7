package services

import (
	"context"

	"resumeats/analyzer/internal/models"
)

type Retriever interface {
	Retrieve(ctx context.Context, index VectorIndex, query string, topK int) (models.RetrievalResult, error)
}

type retriever struct {
	ai AIClient
}

func NewRetriever(ai AIClient) Retriever {
	return &retriever{ai: ai}
}

// Retrieve implements Retriever. The query is embedded in the same space as
// the indexed chunks; when topK exceeds the index size every chunk comes
// back, still sorted by score.
func (r *retriever) Retrieve(ctx context.Context, index VectorIndex, query string, topK int) (models.RetrievalResult, error) {
	queryVector, err := r.ai.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, AsPipelineError(StageRetrieving, err)
	}

	return index.Search(ctx, queryVector, topK)
}
