package usecase

import (
	"context"
	"log/slog"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// PendingSet is the read side of the session's pending-review queue.
type PendingSet interface {
	// PendingByURL returns the id of a queued lead with url.
	PendingByURL(url string) (id string, ok bool)
}

// Detector classifies a lead as duplicate by url, by semantic similarity, or by presence in the pending queue.
// Checks run in that order and stop at the first hit. A failing check counts as "not a duplicate".
type Detector struct {
	store     ports.LeadStore
	index     ports.VectorIndex
	embedder  ports.Embedder
	threshold float32
	dimension int
	log       *slog.Logger
}

// NewDetector builds a detector. Leads whose nearest neighbour scores at least threshold are duplicates.
func NewDetector(store ports.LeadStore, index ports.VectorIndex, embedder ports.Embedder, threshold float32, dimension int, log *slog.Logger) *Detector {
	return &Detector{
		store:     store,
		index:     index,
		embedder:  embedder,
		threshold: threshold,
		dimension: dimension,
		log:       logging.OrDiscard(log),
	}
}

// Check runs the url, semantic and pending checks. The semantic check attaches the generated embedding to lead.
// pending may be nil. A pending entry with the lead's own id is ignored.
func (d *Detector) Check(ctx context.Context, lead *domain.Lead, pending PendingSet) domain.DuplicateVerdict {
	if v, ok := d.byURL(ctx, lead); ok {
		return v
	}
	if v, ok := d.bySimilarity(ctx, lead); ok {
		return v
	}
	if pending != nil {
		if id, ok := pending.PendingByURL(lead.URL); ok && id != lead.ID {
			return domain.DuplicateVerdict{IsDuplicate: true, Check: domain.CheckPending, MatchingID: id}
		}
	}
	return domain.DuplicateVerdict{}
}

func (d *Detector) byURL(ctx context.Context, lead *domain.Lead) (domain.DuplicateVerdict, bool) {
	if d.store == nil {
		return domain.DuplicateVerdict{}, false
	}

	existing, err := d.store.FindByURL(ctx, lead.URL)
	if err != nil {
		d.log.Warn("url duplicate check failed, treating as new", "url", lead.URL, "error", err)
		return domain.DuplicateVerdict{}, false
	}
	if existing == nil {
		return domain.DuplicateVerdict{}, false
	}

	return domain.DuplicateVerdict{IsDuplicate: true, Check: domain.CheckURL, MatchingID: existing.ID}, true
}

func (d *Detector) bySimilarity(ctx context.Context, lead *domain.Lead) (domain.DuplicateVerdict, bool) {
	if d.index == nil || d.embedder == nil {
		return domain.DuplicateVerdict{}, false
	}

	if len(lead.Embedding) == 0 {
		vec, err := d.embedder.Embed(ctx, lead.Text())
		if err != nil {
			d.log.Warn("embedding for duplicate check failed, treating as new", "url", lead.URL, "error", err)
			return domain.DuplicateVerdict{}, false
		}
		if err := lead.SetEmbedding(vec, d.dimension); err != nil {
			d.log.Warn("embedding rejected, treating as new", "url", lead.URL, "error", err)
			return domain.DuplicateVerdict{}, false
		}
	}

	matches, err := d.index.QueryNearest(ctx, lead.Embedding, 1)
	if err != nil {
		d.log.Warn("semantic duplicate check failed, treating as new", "url", lead.URL, "error", err)
		return domain.DuplicateVerdict{}, false
	}
	if len(matches) == 0 || matches[0].Score < d.threshold {
		return domain.DuplicateVerdict{}, false
	}

	return domain.DuplicateVerdict{
		IsDuplicate:     true,
		Check:           domain.CheckSemantic,
		MatchingID:      matches[0].ID,
		SimilarityScore: matches[0].Score,
	}, true
}
