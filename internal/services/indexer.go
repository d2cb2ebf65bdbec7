package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"resumeats/analyzer/internal/config"
	"resumeats/analyzer/internal/models"
)

type EmbeddingIndexer interface {
	BuildIndex(ctx context.Context, docHash string, chunks []models.Chunk) (VectorIndex, error)
}

type embeddingIndexer struct {
	ai          AIClient
	factory     IndexFactory
	concurrency int
	failPolicy  string
	logger      *zap.Logger
}

func NewEmbeddingIndexer(ai AIClient, factory IndexFactory, concurrency int, failPolicy string, logger *zap.Logger) EmbeddingIndexer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &embeddingIndexer{
		ai:          ai,
		factory:     factory,
		concurrency: concurrency,
		failPolicy:  failPolicy,
		logger:      logger,
	}
}

// BuildIndex implements EmbeddingIndexer. Chunk embeddings are mutually
// independent, so they are requested concurrently under a bounded semaphore
// and joined before the index is considered built. Under the fail policy the
// first embedding failure cancels the in-flight calls and fails the whole
// build; under the drop policy failed chunks are logged and skipped.
func (e *embeddingIndexer) BuildIndex(ctx context.Context, docHash string, chunks []models.Chunk) (VectorIndex, error) {
	embedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk models.Chunk) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-embedCtx.Done():
				errs[i] = embedCtx.Err()
				return
			}
			defer func() { <-sem }()

			vector, err := e.ai.GenerateEmbedding(embedCtx, chunk.Text)
			if err != nil {
				errs[i] = err
				if e.failPolicy == config.EmbedPolicyFail {
					cancel()
				}
				return
			}
			vectors[i] = vector
		}(i, chunk)
	}

	wg.Wait()

	// Upsert in chunk order so the index is deterministic for fixed inputs.
	index, err := e.factory.NewIndex(ctx, docHash)
	if err != nil {
		return nil, newPipelineError(StageIndexing, KindIndexBuild, "failed to create index", err)
	}

	dropped := 0
	for i, chunk := range chunks {
		if errs[i] != nil {
			if e.failPolicy == config.EmbedPolicyDrop {
				dropped++
				e.logger.Warn("dropping chunk from index after embedding failure",
					zap.Int("chunk_id", chunk.ID),
					zap.Error(errs[i]),
				)
				continue
			}
			return nil, newPipelineError(StageIndexing, KindIndexBuild, "chunk embedding failed", errs[i])
		}

		if err := index.Upsert(ctx, chunk, vectors[i]); err != nil {
			return nil, err
		}
	}

	if index.Size() == 0 {
		return nil, newPipelineError(StageIndexing, KindIndexBuild, "no chunks could be embedded", nil)
	}

	if dropped > 0 {
		e.logger.Warn("index built with reduced coverage",
			zap.Int("dropped_chunks", dropped),
			zap.Int("indexed_chunks", index.Size()),
		)
	}

	return index, nil
}
