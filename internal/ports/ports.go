package ports

import (
	"context"
	"encoding/json"
	"time"

	"LeadScout/internal/domain"
	"LeadScout/internal/schema"
)

// ArticleSource pulls news about one company inside a lookback window.
type ArticleSource interface {
	Fetch(ctx context.Context, company string, lookback domain.Lookback) ([]domain.Article, error)
}

// LeadStore is the document store. Implementations enforce url uniqueness and report
// violations as domain.ErrDuplicateURL.
type LeadStore interface {
	Insert(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	// FindByURL returns nil, nil when no lead has the url.
	FindByURL(ctx context.Context, url string) (*domain.Lead, error)
	FindRecent(ctx context.Context, limit int) ([]domain.Lead, error)
	Delete(ctx context.Context, id string) error
}

// VectorIndex stores lead embeddings and answers cosine nearest-neighbour queries.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error
	QueryNearest(ctx context.Context, vector []float32, k int) ([]domain.Match, error)
	Delete(ctx context.Context, id string) error
}

// TextGenerator is the LLM service. GenerateStructured returns JSON that conforms to s or an error.
type TextGenerator interface {
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
	GenerateStructured(ctx context.Context, prompt domain.Prompt, s schema.Schema) (json.RawMessage, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Sender delivers a rendered alert to the notification channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Scheduler controls when scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
