package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// PendingQueue is the in-memory review queue of one session, kept in insertion order.
type PendingQueue struct {
	mu    sync.Mutex
	leads []*domain.Lead
}

// Add queues lead unless a lead with the same url is already queued.
func (q *PendingQueue) Add(lead *domain.Lead) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, l := range q.leads {
		if l.URL == lead.URL {
			return false
		}
	}
	q.leads = append(q.leads, lead)
	return true
}

// PendingByURL implements PendingSet.
func (q *PendingQueue) PendingByURL(url string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, l := range q.leads {
		if l.URL == url {
			return l.ID, true
		}
	}
	return "", false
}

// Get returns the queued lead with id.
func (q *PendingQueue) Get(id string) (*domain.Lead, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, l := range q.leads {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Remove drops the lead with id and reports whether it was queued.
func (q *PendingQueue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, l := range q.leads {
		if l.ID == id {
			q.leads = append(q.leads[:i], q.leads[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot copies the queued leads.
func (q *PendingQueue) Snapshot() []domain.Lead {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.Lead, 0, len(q.leads))
	for _, l := range q.leads {
		out = append(out, *l)
	}
	return out
}

// Replace swaps the queue contents for leads.
func (q *PendingQueue) Replace(leads []domain.Lead) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.leads = make([]*domain.Lead, 0, len(leads))
	for i := range leads {
		l := leads[i]
		q.leads = append(q.leads, &l)
	}
}

// Len returns the queue length.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.leads)
}

// SessionDeps wires a review session.
type SessionDeps struct {
	Pipeline      *Pipeline
	Source        ports.ArticleSource
	Store         ports.LeadStore
	ItemDelay     time.Duration
	MaxConcurrent int
	Logger        *slog.Logger
}

// Session owns the pending-review queue for one target and drives both pipeline passes.
// Duplicate detection with enqueue, and every approval, run one at a time.
type Session struct {
	pipeline      *Pipeline
	source        ports.ArticleSource
	store         ports.LeadStore
	queue         *PendingQueue
	limiter       *rate.Limiter
	maxConcurrent int
	log           *slog.Logger

	serial sync.Mutex
}

// ScanReport summarises one scan.
type ScanReport struct {
	Companies  int
	Articles   int
	Queued     int
	Discarded  int
	Duplicates int
	Failed     int
}

// NewSession builds a session with an empty queue.
func NewSession(deps SessionDeps) *Session {
	limit := rate.Inf
	if deps.ItemDelay > 0 {
		limit = rate.Every(deps.ItemDelay)
	}
	maxConcurrent := deps.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Session{
		pipeline:      deps.Pipeline,
		source:        deps.Source,
		store:         deps.Store,
		queue:         &PendingQueue{},
		limiter:       rate.NewLimiter(limit, 1),
		maxConcurrent: maxConcurrent,
		log:           logging.OrDiscard(deps.Logger),
	}
}

// Scan fetches every company, runs the first pass and queues survivors that are not duplicates.
// Companies are fetched concurrently; items are paced by the session's inter-item delay.
// A company whose source fails is logged and counted, not returned as an error.
func (s *Session) Scan(ctx context.Context, companies []string, lookback domain.Lookback) (ScanReport, error) {
	var articles, queued, discarded, duplicates, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, company := range companies {
		g.Go(func() error {
			fetched, err := s.source.Fetch(gctx, company, lookback)
			if err != nil {
				failed.Add(1)
				s.log.Error("fetch failed", "company", company, "error", err)
				return nil
			}
			articles.Add(int64(len(fetched)))

			for _, article := range fetched {
				if err := s.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("scan %s: %w", company, err)
				}

				res := s.pipeline.Ingest(gctx, company, article)
				if res.Outcome != domain.OutcomePending {
					discarded.Add(1)
					continue
				}

				if s.enqueue(gctx, res.Lead) {
					queued.Add(1)
				} else {
					duplicates.Add(1)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	report := ScanReport{
		Companies:  len(companies),
		Articles:   int(articles.Load()),
		Queued:     int(queued.Load()),
		Discarded:  int(discarded.Load()),
		Duplicates: int(duplicates.Load()),
		Failed:     int(failed.Load()),
	}
	s.log.Info("scan finished", "target", s.pipeline.Target().Key, "companies", report.Companies,
		"articles", report.Articles, "queued", report.Queued, "discarded", report.Discarded,
		"duplicates", report.Duplicates, "failed", report.Failed)
	return report, err
}

func (s *Session) enqueue(ctx context.Context, lead *domain.Lead) bool {
	s.serial.Lock()
	defer s.serial.Unlock()

	if verdict := s.pipeline.Detect(ctx, lead, s.queue); verdict.IsDuplicate {
		return false
	}
	return s.queue.Add(lead)
}

// Approve runs the final pass on a queued lead. The lead leaves the queue unless the commit failed.
func (s *Session) Approve(ctx context.Context, id string) (Result, error) {
	s.serial.Lock()
	defer s.serial.Unlock()

	lead, ok := s.queue.Get(id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	res := s.pipeline.Process(ctx, lead, s.queue)
	if res.Outcome != domain.OutcomeCommitFailed {
		s.queue.Remove(id)
	}
	return res, nil
}

// ApproveAll approves every queued lead in queue order and stops early when ctx is done.
func (s *Session) ApproveAll(ctx context.Context) ([]Result, error) {
	pending := s.queue.Snapshot()
	results := make([]Result, 0, len(pending))

	for _, lead := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Approve(ctx, lead.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Reject drops a queued lead without committing it.
func (s *Session) Reject(id string) error {
	if !s.queue.Remove(id) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// Pending returns a copy of the queue.
func (s *Session) Pending() []domain.Lead {
	return s.queue.Snapshot()
}

// Clear empties the queue.
func (s *Session) Clear() {
	s.queue.Replace(nil)
}

// LoadRecent replaces the queue with the document store's most recent leads.
func (s *Session) LoadRecent(ctx context.Context, limit int) error {
	if s.store == nil {
		return fmt.Errorf("document store is not configured")
	}

	leads, err := s.store.FindRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("load recent leads: %w", err)
	}
	s.queue.Replace(leads)
	return nil
}
