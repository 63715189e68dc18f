package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/metrics"
)

// Thresholds are the gate settings of the two pipeline passes.
type Thresholds struct {
	Ingest          int
	Commit          int
	RejectNoneValue bool
}

// PipelineDeps wires the pipeline components for one target.
type PipelineDeps struct {
	Target      domain.Target
	Normalizer  *Normalizer
	Relevance   *RelevanceEvaluator
	Value       *ValueEvaluator
	Detector    *Detector
	Coordinator *Coordinator
	Notifier    *Notifier
	Thresholds  Thresholds
	Metrics     *metrics.Recorder
	Logger      *slog.Logger
	Now         func() time.Time
}

// Pipeline evaluates, deduplicates and commits leads for one target.
type Pipeline struct {
	target      domain.Target
	normalizer  *Normalizer
	relevance   *RelevanceEvaluator
	value       *ValueEvaluator
	detector    *Detector
	coordinator *Coordinator
	notifier    *Notifier
	thresholds  Thresholds
	metrics     *metrics.Recorder
	log         *slog.Logger
	now         func() time.Time
}

// Result is the outcome of a pipeline pass over one lead.
type Result struct {
	Outcome   domain.Outcome
	Lead      *domain.Lead
	Duplicate domain.DuplicateVerdict
	Notified  bool
	Err       error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		target:      deps.Target,
		normalizer:  deps.Normalizer,
		relevance:   deps.Relevance,
		value:       deps.Value,
		detector:    deps.Detector,
		coordinator: deps.Coordinator,
		notifier:    deps.Notifier,
		thresholds:  deps.Thresholds,
		metrics:     deps.Metrics,
		log:         logging.OrDiscard(deps.Logger),
		now:         now,
	}
}

// Target returns the target the pipeline evaluates for.
func (p *Pipeline) Target() domain.Target {
	return p.target
}

// Ingest is the first pass over a fetched article: normalize, then the permissive relevance gate
// and the value gate. A surviving lead has OutcomePending.
func (p *Pipeline) Ingest(ctx context.Context, company string, article domain.Article) Result {
	if !p.target.Tracks(company) {
		return Result{Outcome: domain.OutcomeRejected, Err: fmt.Errorf("%w: %s", domain.ErrUnknownCompany, company)}
	}

	description := p.normalizer.Normalize(ctx, article.RawDescription)
	lead := domain.NewLead(company, p.target.Key, article, description, p.now())

	if outcome, ok := p.gate(ctx, lead, p.thresholds.Ingest, false, "ingest"); !ok {
		return Result{Outcome: outcome, Lead: lead}
	}
	return Result{Outcome: domain.OutcomePending, Lead: lead}
}

// Detect runs the duplicate detector against the stores and pending.
func (p *Pipeline) Detect(ctx context.Context, lead *domain.Lead, pending PendingSet) domain.DuplicateVerdict {
	verdict := p.detector.Check(ctx, lead, pending)
	if verdict.IsDuplicate {
		p.metrics.Duplicate(string(verdict.Check))
		p.log.Info("duplicate lead", "check", verdict.Check, "company", lead.Company, "title", lead.Title,
			"url", lead.URL, "matching_id", verdict.MatchingID, "similarity", verdict.SimilarityScore)
	}
	return verdict
}

// Process is the final pass: re-evaluation at the commit threshold, duplicate detection, commit and notification.
// A notification failure does not undo the commit.
func (p *Pipeline) Process(ctx context.Context, lead *domain.Lead, pending PendingSet) Result {
	if !p.target.Tracks(lead.Company) {
		return Result{Outcome: domain.OutcomeRejected, Lead: lead, Err: fmt.Errorf("%w: %s", domain.ErrUnknownCompany, lead.Company)}
	}

	if outcome, ok := p.gate(ctx, lead, p.thresholds.Commit, p.thresholds.RejectNoneValue, "commit"); !ok {
		return Result{Outcome: outcome, Lead: lead}
	}

	if verdict := p.Detect(ctx, lead, pending); verdict.IsDuplicate {
		return Result{Outcome: domain.OutcomeDuplicate, Lead: lead, Duplicate: verdict}
	}

	stored, err := p.coordinator.Commit(ctx, lead)
	if err != nil {
		p.log.Error("commit failed", "company", lead.Company, "title", lead.Title, "url", lead.URL, "error", err)
		return Result{Outcome: domain.OutcomeCommitFailed, Lead: lead, Err: err}
	}

	notified := false
	if p.notifier != nil {
		notified = p.notifier.Notify(ctx, *stored)
	}
	return Result{Outcome: domain.OutcomeCommitted, Lead: stored, Notified: notified}
}

// gate runs the relevance and value evaluators and records their results on lead.
func (p *Pipeline) gate(ctx context.Context, lead *domain.Lead, threshold int, rejectNone bool, pass string) (domain.Outcome, bool) {
	relevance := p.relevance.Evaluate(ctx, lead.Company, lead.Title, lead.Description)
	lead.ApplyRelevance(relevance)
	if !relevance.Passes(threshold) {
		p.metrics.GateRejected(pass + "_relevance")
		p.log.Info("lead below relevance threshold", "pass", pass, "company", lead.Company, "title", lead.Title,
			"url", lead.URL, "score", relevance.Score, "threshold", threshold)
		return domain.OutcomeIrrelevant, false
	}

	value := p.value.Evaluate(ctx, lead.Company, lead.Title, lead.Description)
	lead.ApplyValue(value)
	if !value.IsValuable || (rejectNone && domain.OnlyNone(value.ValueTypes)) {
		p.metrics.GateRejected(pass + "_value")
		p.log.Info("lead not valuable", "pass", pass, "company", lead.Company, "title", lead.Title,
			"url", lead.URL, "value_types", value.ValueTypes)
		return domain.OutcomeNotValuable, false
	}

	return "", true
}
