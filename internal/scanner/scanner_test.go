package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, Request) ([]domain.Article, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("googlenews"), namedScanner("html"))
	assert.Equal(t, []string{"googlenews", "html"}, reg.Names())

	s, err := reg.Resolve("html")
	require.NoError(t, err)
	assert.Equal(t, "html", s.Name())

	_, err = reg.Resolve("rss")
	require.Error(t, err)
}

func TestRequestSince(t *testing.T) {
	t.Parallel()

	lb, err := domain.ParseLookback("7d")
	require.NoError(t, err)

	now := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	req := Request{Lookback: lb, Now: now}
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), req.Since())
}
