package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/metrics"
	"LeadScout/internal/ports"
)

// Coordinator persists a lead to the document store and then to the vector index.
// When the vector write fails the document is deleted again, so a stored lead always has a vector.
type Coordinator struct {
	store     ports.LeadStore
	index     ports.VectorIndex
	embedder  ports.Embedder
	dimension int
	metrics   *metrics.Recorder
	log       *slog.Logger
}

// NewCoordinator wires the two stores and the embedder.
func NewCoordinator(store ports.LeadStore, index ports.VectorIndex, embedder ports.Embedder, dimension int, rec *metrics.Recorder, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		index:     index,
		embedder:  embedder,
		dimension: dimension,
		metrics:   rec,
		log:       logging.OrDiscard(log),
	}
}

// Commit returns the stored lead, or nil and an error when the lead is in neither store.
// The only exception is a failed compensating delete, reported as a joined error.
func (c *Coordinator) Commit(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if err := c.ensureEmbedding(ctx, lead); err != nil {
		c.metrics.Commit("embedding_failed")
		return nil, err
	}

	stored, err := c.store.Insert(ctx, *lead)
	if err != nil {
		c.metrics.Commit("store_failed")
		return nil, fmt.Errorf("store lead %s: %w", lead.ID, err)
	}

	if err := c.index.Upsert(ctx, stored.ID, stored.Embedding, stored.VectorMetadata()); err != nil {
		c.metrics.Commit("index_failed")
		upsertErr := fmt.Errorf("index lead %s: %w", stored.ID, err)

		if delErr := c.store.Delete(ctx, stored.ID); delErr != nil {
			c.metrics.Compensation(false)
			c.log.Error("compensating delete failed, document has no vector",
				"id", stored.ID, "url", stored.URL, "error", delErr)
			return nil, errors.Join(upsertErr, fmt.Errorf("compensating delete %s: %w", stored.ID, delErr))
		}

		c.metrics.Compensation(true)
		c.log.Warn("vector write failed, document removed", "id", stored.ID, "url", stored.URL, "error", err)
		return nil, upsertErr
	}

	c.metrics.Commit("committed")
	c.log.Info("lead committed", "id", stored.ID, "company", stored.Company, "url", stored.URL)
	return &stored, nil
}

func (c *Coordinator) ensureEmbedding(ctx context.Context, lead *domain.Lead) error {
	if len(lead.Embedding) > 0 {
		return domain.CheckDimension(lead.Embedding, c.dimension)
	}

	vec, err := c.embedder.Embed(ctx, lead.Text())
	if err != nil {
		return fmt.Errorf("embed lead %s: %w", lead.ID, err)
	}
	return lead.SetEmbedding(vec, c.dimension)
}
