package services

import (
	"context"
	"math"
	"sort"

	"resumeats/analyzer/internal/models"
)

// VectorIndex maps chunk ids to (chunk, embedding) pairs for exactly one
// document. The default implementation lives in memory and dies with the
// request; a qdrant-backed implementation of the same contract provides
// durability keyed by the document's content hash.
type VectorIndex interface {
	Upsert(ctx context.Context, chunk models.Chunk, vector []float32) error
	Search(ctx context.Context, queryVector []float32, limit int) (models.RetrievalResult, error)
	Size() int
	Destroy(ctx context.Context) error
}

// IndexFactory creates an empty index for one document. docHash is a content
// hash of the uploaded bytes; the in-memory factory ignores it.
type IndexFactory interface {
	NewIndex(ctx context.Context, docHash string) (VectorIndex, error)
}

type memoryIndexFactory struct{}

func NewMemoryIndexFactory() IndexFactory {
	return &memoryIndexFactory{}
}

// NewIndex implements IndexFactory.
func (f *memoryIndexFactory) NewIndex(ctx context.Context, docHash string) (VectorIndex, error) {
	return &memoryIndex{}, nil
}

type indexEntry struct {
	chunk  models.Chunk
	vector []float32
}

type memoryIndex struct {
	entries   []indexEntry
	dimension int
}

// Upsert implements VectorIndex.
func (m *memoryIndex) Upsert(ctx context.Context, chunk models.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return newPipelineError(StageIndexing, KindIndexBuild, "empty embedding vector", nil)
	}
	if m.dimension == 0 {
		m.dimension = len(vector)
	} else if len(vector) != m.dimension {
		return newPipelineError(StageIndexing, KindIndexBuild, "embedding dimension mismatch", nil)
	}

	m.entries = append(m.entries, indexEntry{chunk: chunk, vector: vector})
	return nil
}

// Search implements VectorIndex. It scores every stored chunk by cosine
// similarity against the query vector and returns the limit highest, sorted
// descending with ties broken by lower chunk id. The index itself is not
// mutated.
func (m *memoryIndex) Search(ctx context.Context, queryVector []float32, limit int) (models.RetrievalResult, error) {
	if len(queryVector) != m.dimension {
		return nil, newPipelineError(StageRetrieving, KindIndexBuild, "query embedding dimension mismatch", nil)
	}

	scored := make(models.RetrievalResult, 0, len(m.entries))
	for _, entry := range m.entries {
		scored = append(scored, models.ScoredChunk{
			Chunk: entry.chunk,
			Score: cosineSimilarity(queryVector, entry.vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

// Size implements VectorIndex.
func (m *memoryIndex) Size() int {
	return len(m.entries)
}

// Destroy implements VectorIndex.
func (m *memoryIndex) Destroy(ctx context.Context) error {
	m.entries = nil
	m.dimension = 0
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
