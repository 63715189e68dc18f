package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	c.calls++
	return c.vec, c.err
}

func TestCachedReusesVector(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{vec: []float32{1, 0, 0}}
	c, err := NewCached(inner, 3, 8)
	require.NoError(t, err)

	first, err := c.Embed(context.Background(), "Veem raises $70M")
	require.NoError(t, err)
	first[0] = 42

	second, err := c.Embed(context.Background(), "Veem raises $70M")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, []float32{1, 0, 0}, second)
}

func TestCachedRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{vec: []float32{1, 0}}
	c, err := NewCached(inner, 3, 8)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "text")
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = c.Embed(context.Background(), "text")
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c, err := NewCached(&countingEmbedder{err: boom}, 3, 0)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "text")
	require.ErrorIs(t, err, boom)
}
