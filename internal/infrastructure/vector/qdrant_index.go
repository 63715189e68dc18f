package vector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
}

// QdrantIndex keeps one cosine point per committed lead, keyed by the lead id.
type QdrantIndex struct {
	client     pointsClient
	collection string
	dimension  int
}

var _ ports.VectorIndex = (*QdrantIndex)(nil)

// NewQdrantClient dials the gRPC endpoint described by cfg.
func NewQdrantClient(cfg config.VectorIndexConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return client, nil
}

// NewQdrantIndex wraps client for collection. Vectors must be exactly dimension long.
func NewQdrantIndex(client pointsClient, collection string, dimension int) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection, dimension: dimension}
}

// EnsureCollection creates the cosine collection when it does not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", q.collection, err)
	}
	return nil
}

// Upsert writes the point and waits until it is searchable.
func (q *QdrantIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	if err := domain.CheckDimension(vector, q.dimension); err != nil {
		return err
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(id),
		Vectors: qdrant.NewVectorsDense(vector),
		Payload: qdrant.NewValueMap(metadata),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", id, err)
	}
	return nil
}

// QueryNearest returns up to k matches ordered by descending cosine similarity.
func (q *QdrantIndex) QueryNearest(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	if err := domain.CheckDimension(vector, q.dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query nearest: %w", err)
	}

	matches := make([]domain.Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, domain.Match{
			ID:       pointID(p.GetId()),
			Score:    p.GetScore(),
			Metadata: payloadToMap(p.GetPayload()),
		})
	}
	return matches, nil
}

// Delete removes the point with id and waits for the write.
func (q *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return fmt.Errorf("delete point %s: %w", id, err)
	}
	return nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
