package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"LeadScout/internal/domain"
)

// Request carries all parameters required to search one source for one company.
type Request struct {
	Company    string
	Lookback   domain.Lookback
	Now        time.Time
	SiteName   string
	URL        string
	MaxEntries int
	Options    map[string]string
}

// Since is the earliest publication time the request accepts.
func (r Request) Since() time.Time {
	return r.Lookback.Since(r.Now)
}

// Scanner captures a single strategy implementation (Google News, HTML listing, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
