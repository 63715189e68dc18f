package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
	"LeadScout/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry   *scanner.Registry
	sources    []config.SourceConfig
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, maxEntries int, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:   reg,
		sources:    sources,
		maxEntries: maxEntries,
		logger:     log,
		now:        time.Now,
	}
}

// Fetch runs every configured source for company. Articles are deduplicated by url across sources.
// A failing source is logged and skipped; Fetch fails only when every source failed.
func (s *StrategySource) Fetch(ctx context.Context, company string, lookback domain.Lookback) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch company", "company", company, "sources", len(s.sources), "lookback", lookback.String())

	var (
		aggregated []domain.Article
		failures   []error
		seen       = map[string]struct{}{}
		now        = s.now().UTC()
	)

	for _, src := range s.sources {
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			Company:    company,
			Lookback:   lookback,
			Now:        now,
			SiteName:   src.Name,
			URL:        src.URL,
			MaxEntries: s.maxEntries,
			Options:    src.Options,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("source failed", "source", src.Name, "company", company, "error", err)
			}
			failures = append(failures, fmt.Errorf("scan source %s: %w", src.Name, err))
			continue
		}

		for _, article := range results {
			if _, dup := seen[article.URL]; dup {
				continue
			}
			seen[article.URL] = struct{}{}
			if article.Source == "" {
				article.Source = src.Name
			}
			aggregated = append(aggregated, article)
		}
		s.debug("source produced articles", "source", src.Name, "company", company, "count", len(results))
	}

	if len(failures) > 0 && len(failures) == len(s.sources) {
		return nil, errors.Join(failures...)
	}

	s.debug("strategy source done", "company", company, "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
