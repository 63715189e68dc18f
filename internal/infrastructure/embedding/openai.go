package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"LeadScout/internal/config"
	"LeadScout/internal/ports"
)

// OpenAI embeds text through langchaingo's OpenAI client.
type OpenAI struct {
	embedder embeddings.Embedder
}

var _ ports.Embedder = (*OpenAI)(nil)

// NewOpenAI builds an embedder for cfg.Model against cfg.Endpoint.
func NewOpenAI(cfg config.EmbeddingConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedding api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}

	return &OpenAI{embedder: embedder}, nil
}

// Embed returns the vector for text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text provided for embedding")
	}

	vec, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}
