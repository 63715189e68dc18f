package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
	"LeadScout/internal/metrics"
	"LeadScout/internal/schema"
)

const testDimension = 3

var testTarget = domain.Target{
	Key:         "couchbase",
	Name:        "Couchbase",
	Description: "Enterprise database and analytics solutions provider",
	Companies:   []string{"Veem", "Equifax"},
}

// memStore is an in-memory document store with a unique url constraint.
type memStore struct {
	mu         sync.Mutex
	leads      map[string]domain.Lead
	seq        int
	inserts    int
	deletes    int
	findErr    error
	insertErr  error
	deleteErr  error
	createdAt0 time.Time
}

func newMemStore() *memStore {
	return &memStore{leads: map[string]domain.Lead{}, createdAt0: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) Insert(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return domain.Lead{}, m.insertErr
	}
	for _, l := range m.leads {
		if l.URL == lead.URL {
			return domain.Lead{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, lead.URL)
		}
	}
	m.inserts++
	m.seq++
	lead.CreatedAt = m.createdAt0.Add(time.Duration(m.seq) * time.Minute)
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memStore) FindByURL(_ context.Context, url string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, l := range m.leads {
		if l.URL == url {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindRecent(_ context.Context, limit int) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]domain.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes++
	delete(m.leads, id)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leads)
}

type point struct {
	vector   []float32
	metadata map[string]any
}

// memIndex is an in-memory cosine vector index.
type memIndex struct {
	mu        sync.Mutex
	points    map[string]point
	upserts   int
	upsertErr error
	queryErr  error
}

func newMemIndex() *memIndex {
	return &memIndex{points: map[string]point{}}
}

func (m *memIndex) Upsert(_ context.Context, id string, vector []float32, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.points[id] = point{vector: append([]float32(nil), vector...), metadata: metadata}
	return nil
}

func (m *memIndex) QueryNearest(_ context.Context, vector []float32, k int) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queryErr != nil {
		return nil, m.queryErr
	}
	matches := make([]domain.Match, 0, len(m.points))
	for id, p := range m.points {
		matches = append(matches, domain.Match{ID: id, Score: cosine(vector, p.vector), Metadata: p.metadata})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *memIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points, id)
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

type vectorRule struct {
	contains string
	vector   []float32
}

// fakeEmbedder returns the vector of the first rule whose key occurs in the text.
type fakeEmbedder struct {
	mu       sync.Mutex
	rules    []vectorRule
	fallback []float32
	err      error
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rules {
		if strings.Contains(text, r.contains) {
			return r.vector, nil
		}
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return []float32{0, 0, 1}, nil
}

type reply struct {
	raw string
	err error
}

// fakeGenerator answers structured calls per schema name. Replies are consumed in order; the last one repeats.
type fakeGenerator struct {
	mu         sync.Mutex
	structured map[string][]reply
	summary    reply
	prompts    map[string][]domain.Prompt
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		structured: map[string][]reply{},
		summary:    reply{raw: "A professional summary."},
		prompts:    map[string][]domain.Prompt{},
	}
}

func (f *fakeGenerator) on(name string, replies ...reply) *fakeGenerator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structured[name] = replies
	return f
}

func (f *fakeGenerator) Generate(_ context.Context, prompt domain.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts["summary"] = append(f.prompts["summary"], prompt)
	return f.summary.raw, f.summary.err
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, prompt domain.Prompt, s schema.Schema) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts[s.Name] = append(f.prompts[s.Name], prompt)
	replies := f.structured[s.Name]
	if len(replies) == 0 {
		return nil, domain.ErrNoStructuredOutput
	}
	r := replies[0]
	if len(replies) > 1 {
		f.structured[s.Name] = replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.raw), nil
}

func (f *fakeGenerator) calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts[name])
}

func relevant(score int) reply {
	return reply{raw: fmt.Sprintf(`{"is_relevant":true,"relevance_score":%d,"explanation":"fits"}`, score)}
}

func valuable(types ...string) reply {
	raw, _ := json.Marshal(map[string]any{
		"is_valuable":  true,
		"value_type":   types,
		"action_items": []string{"Reach out to the account owner"},
		"explanation":  "useful",
	})
	return reply{raw: string(raw)}
}

const goodMessage = `{"greeting":"Hi team!","main_points":["New funding"],"action_suggestions":["Congratulate them"],"urgency_level":"high"}`

// fakeSender records delivered texts.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

// fakeSource serves canned articles per company.
type fakeSource struct {
	articles map[string][]domain.Article
	err      error
}

func (f *fakeSource) Fetch(_ context.Context, company string, _ domain.Lookback) ([]domain.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[company], nil
}

type harness struct {
	store    *memStore
	index    *memIndex
	embedder *fakeEmbedder
	gen      *fakeGenerator
	sender   *fakeSender
	metrics  *metrics.Recorder
	pipeline *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:    newMemStore(),
		index:    newMemIndex(),
		embedder: &fakeEmbedder{},
		gen:      newFakeGenerator(),
		sender:   &fakeSender{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	h.gen.on(relevanceSchema.Name, relevant(85))
	h.gen.on(valueSchema.Name, valuable("funding_round"))
	h.gen.on(messageSchema.Name, reply{raw: goodMessage})

	log := logging.Discard()
	h.pipeline = NewPipeline(PipelineDeps{
		Target:      testTarget,
		Normalizer:  NewNormalizer(h.gen, 0, log),
		Relevance:   NewRelevanceEvaluator(h.gen, testTarget, log),
		Value:       NewValueEvaluator(h.gen, testTarget, log),
		Detector:    NewDetector(h.store, h.index, h.embedder, 0.85, testDimension, log),
		Coordinator: NewCoordinator(h.store, h.index, h.embedder, testDimension, h.metrics, log),
		Notifier:    NewNotifier(h.gen, h.sender, h.metrics, log),
		Thresholds:  Thresholds{Ingest: 50, Commit: 70, RejectNoneValue: true},
		Metrics:     h.metrics,
		Logger:      log,
		Now:         func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	return h
}

func newLead(company, title, url string) *domain.Lead {
	return domain.NewLead(company, testTarget.Key, domain.Article{Title: title, URL: url, Source: "Google News"},
		title+" summary", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
}
