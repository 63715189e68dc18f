package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

type fakePoints struct {
	exists   bool
	created  *qdrant.CreateCollection
	upserted *qdrant.UpsertPoints
	queried  *qdrant.QueryPoints
	deleted  *qdrant.DeletePoints
	results  []*qdrant.ScoredPoint
	err      error
}

func (f *fakePoints) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func (f *fakePoints) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	return f.err
}

func (f *fakePoints) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserted = req
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakePoints) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queried = req
	return f.results, f.err
}

func (f *fakePoints) Delete(_ context.Context, req *qdrant.DeletePoints) (*qdrant.UpdateResult, error) {
	f.deleted = req
	return &qdrant.UpdateResult{}, f.err
}

const leadID = "6f1c1f8e-3b39-4a53-9d0a-3a8c4f0c7a11"

func TestEnsureCollection(t *testing.T) {
	t.Parallel()

	fake := &fakePoints{}
	idx := NewQdrantIndex(fake, "leads", 3)
	require.NoError(t, idx.EnsureCollection(context.Background()))
	require.NotNil(t, fake.created)
	assert.Equal(t, "leads", fake.created.GetCollectionName())
	assert.Equal(t, uint64(3), fake.created.GetVectorsConfig().GetParams().GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, fake.created.GetVectorsConfig().GetParams().GetDistance())

	existing := &fakePoints{exists: true}
	require.NoError(t, NewQdrantIndex(existing, "leads", 3).EnsureCollection(context.Background()))
	assert.Nil(t, existing.created)
}

func TestUpsertWaitsAndCarriesPayload(t *testing.T) {
	t.Parallel()

	fake := &fakePoints{}
	idx := NewQdrantIndex(fake, "leads", 3)

	err := idx.Upsert(context.Background(), leadID, []float32{1, 0, 0}, map[string]any{
		"url":             "http://x/1",
		"relevance_score": int64(80),
	})
	require.NoError(t, err)
	require.NotNil(t, fake.upserted)
	assert.True(t, fake.upserted.GetWait())
	require.Len(t, fake.upserted.GetPoints(), 1)

	point := fake.upserted.GetPoints()[0]
	assert.Equal(t, leadID, point.GetId().GetUuid())
	assert.Equal(t, "http://x/1", point.GetPayload()["url"].GetStringValue())
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	fake := &fakePoints{}
	err := NewQdrantIndex(fake, "leads", 3).Upsert(context.Background(), leadID, []float32{1}, nil)
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Nil(t, fake.upserted)
}

func TestQueryNearest(t *testing.T) {
	t.Parallel()

	fake := &fakePoints{results: []*qdrant.ScoredPoint{{
		Id:    qdrant.NewID(leadID),
		Score: 0.91,
		Payload: qdrant.NewValueMap(map[string]any{
			"url":         "http://x/1",
			"value_types": []any{"funding_round"},
		}),
	}}}
	idx := NewQdrantIndex(fake, "leads", 3)

	matches, err := idx.QueryNearest(context.Background(), []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, leadID, matches[0].ID)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-6)
	assert.Equal(t, "http://x/1", matches[0].Metadata["url"])
	assert.Equal(t, []any{"funding_round"}, matches[0].Metadata["value_types"])
	assert.Equal(t, uint64(1), fake.queried.GetLimit())
}

func TestDeleteWrapsErrors(t *testing.T) {
	t.Parallel()

	fake := &fakePoints{err: errors.New("unavailable")}
	err := NewQdrantIndex(fake, "leads", 3).Delete(context.Background(), leadID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), leadID)
	assert.True(t, fake.deleted.GetWait())
}
