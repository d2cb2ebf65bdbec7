package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"resumeats/analyzer/internal/models"
)

// qdrantIndexFactory builds VectorIndex instances backed by a shared qdrant
// collection. Points are scoped to one document by its content hash, so the
// same upload reuses the same keyspace across requests.
type qdrantIndexFactory struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantIndexFactory(urlStr, apiKey, collectionName string) (IndexFactory, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, not the REST one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	factory := &qdrantIndexFactory{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004 dimension
	}

	if err := factory.initCollection(context.Background()); err != nil {
		return nil, err
	}

	return factory, nil
}

// initCollection creates the backing collection if it does not exist yet.
func (f *qdrantIndexFactory) initCollection(ctx context.Context) error {
	exists, err := f.client.CollectionExists(ctx, f.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = f.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: f.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     f.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// NewIndex implements IndexFactory.
func (f *qdrantIndexFactory) NewIndex(ctx context.Context, docHash string) (VectorIndex, error) {
	return &qdrantIndex{
		client:         f.client,
		collectionName: f.collectionName,
		docHash:        docHash,
	}, nil
}

type qdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	docHash        string
	size           int
}

// Upsert implements VectorIndex. Point ids are derived from the document
// hash and chunk id, so re-indexing the same document overwrites in place.
func (q *qdrantIndex) Upsert(ctx context.Context, chunk models.Chunk, vector []float32) error {
	pointID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", q.docHash, chunk.ID)))

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID.String()),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"doc_hash":     q.docHash,
			"chunk_id":     int64(chunk.ID),
			"text":         chunk.Text,
			"section":      chunk.Section,
			"start_offset": int64(chunk.StartOffset),
			"end_offset":   int64(chunk.EndOffset),
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return newPipelineError(StageIndexing, KindIndexBuild, "failed to upsert point", err)
	}

	q.size++
	return nil
}

// Search implements VectorIndex. Scoring and ordering are delegated to
// qdrant's cosine distance; results are scoped to this index's document.
func (q *qdrantIndex) Search(ctx context.Context, queryVector []float32, limit int) (models.RetrievalResult, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("doc_hash", q.docHash),
		},
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, newPipelineError(StageRetrieving, KindIndexBuild, "failed to search", err)
	}

	results := make(models.RetrievalResult, 0, len(points))
	for _, point := range points {
		payload := point.Payload

		chunk := models.Chunk{}
		if v, ok := payload["chunk_id"]; ok {
			chunk.ID = int(v.GetIntegerValue())
		}
		if v, ok := payload["text"]; ok {
			chunk.Text = v.GetStringValue()
		}
		if v, ok := payload["section"]; ok {
			chunk.Section = v.GetStringValue()
		}
		if v, ok := payload["start_offset"]; ok {
			chunk.StartOffset = int(v.GetIntegerValue())
		}
		if v, ok := payload["end_offset"]; ok {
			chunk.EndOffset = int(v.GetIntegerValue())
		}

		results = append(results, models.ScoredChunk{
			Chunk: chunk,
			Score: float64(point.Score),
		})
	}

	return results, nil
}

// Size implements VectorIndex.
func (q *qdrantIndex) Size() int {
	return q.size
}

// Destroy implements VectorIndex. Points are kept: durability across requests
// is the reason this backend exists. Re-uploading the same document upserts
// over the same point ids.
func (q *qdrantIndex) Destroy(ctx context.Context) error {
	return nil
}
