package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a news item about a tracked company that moves through evaluation, deduplication and commit.
// A single pipeline invocation owns a Lead while it is being enriched.
type Lead struct {
	ID             string
	Company        string
	Title          string
	URL            string
	Description    string
	RawDescription string
	Source         string
	Category       string
	Timestamp      time.Time

	// RelevanceScore is nil until the relevance evaluator has run.
	RelevanceScore       *int
	RelevanceExplanation string

	ValueTypes       []ValueType
	ActionItems      []string
	ValueExplanation string

	Embedding []float32
	CreatedAt time.Time
}

// NewLead assigns a fresh identifier to an article about company.
func NewLead(company, category string, article Article, description string, now time.Time) *Lead {
	ts := article.PublishedAt
	if ts.IsZero() {
		ts = now
	}

	return &Lead{
		ID:             uuid.NewString(),
		Company:        company,
		Title:          article.Title,
		URL:            article.URL,
		Description:    description,
		RawDescription: article.RawDescription,
		Source:         article.Source,
		Category:       category,
		Timestamp:      ts.UTC(),
	}
}

// Text is the input used for the lead's embedding.
func (l *Lead) Text() string {
	return strings.TrimSpace(l.Company + " " + l.Title + " " + l.Description)
}

// ApplyRelevance records a relevance evaluation.
func (l *Lead) ApplyRelevance(r RelevanceResult) {
	score := r.Score
	l.RelevanceScore = &score
	l.RelevanceExplanation = r.Explanation
}

// ApplyValue records a value evaluation.
func (l *Lead) ApplyValue(v ValueResult) {
	l.ValueTypes = append([]ValueType(nil), v.ValueTypes...)
	l.ActionItems = append([]string(nil), v.ActionItems...)
	l.ValueExplanation = v.Explanation
}

// Score returns the relevance score, or 0 when the lead was never evaluated.
func (l *Lead) Score() int {
	if l.RelevanceScore == nil {
		return 0
	}
	return *l.RelevanceScore
}

// SetEmbedding stores the vector once. The length must match dimension exactly.
func (l *Lead) SetEmbedding(vector []float32, dimension int) error {
	if len(l.Embedding) > 0 {
		return ErrEmbeddingImmutable
	}
	if err := CheckDimension(vector, dimension); err != nil {
		return err
	}
	l.Embedding = append([]float32(nil), vector...)
	return nil
}

// CheckDimension rejects vectors that are not exactly dimension long.
func CheckDimension(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}

// VectorMetadata is the minimal payload stored next to the lead's vector.
func (l *Lead) VectorMetadata() map[string]any {
	types := make([]any, 0, len(l.ValueTypes))
	for _, t := range l.ValueTypes {
		types = append(types, string(t))
	}

	source := l.Source
	if source == "" {
		source = "unknown"
	}

	return map[string]any{
		"title":           l.Title,
		"url":             l.URL,
		"source":          source,
		"company":         l.Company,
		"relevance_score": int64(l.Score()),
		"value_types":     types,
	}
}
