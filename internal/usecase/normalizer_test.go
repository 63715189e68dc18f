package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/logging"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	raw := `<html><head><style>p { color: red }</style><script>track()</script></head>
<body><p>Veem   raises <b>$70M</b></p><p>Read more at https://veem.com/news?id=1 today.</p>
<a href="https://news.example/veem">Veem</a> &amp; partners</body></html>`

	got := CleanText(raw)
	assert.Equal(t, "Veem raises $70M Read more at today. Veem & partners", got)
	assert.NotContains(t, got, "track()")
	assert.NotContains(t, got, "color")
}

func TestCleanTextPlain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain text", CleanText("  plain\n\ttext  "))
	assert.Equal(t, "", CleanText("   "))
}

func TestNormalizeSummarises(t *testing.T) {
	t.Parallel()

	gen := newFakeGenerator()
	n := NewNormalizer(gen, 0, logging.Discard())

	assert.Equal(t, "A professional summary.", n.Normalize(context.Background(), "<p>Veem raises</p>"))
	require.Equal(t, 1, gen.calls("summary"))
	assert.Contains(t, gen.prompts["summary"][0].User, "Veem raises")
	assert.Contains(t, gen.prompts["summary"][0].User, "200-400 words")
}

func TestNormalizeFallsBackToCleanedText(t *testing.T) {
	t.Parallel()

	gen := newFakeGenerator()
	gen.summary = reply{err: errors.New("rate limited")}
	n := NewNormalizer(gen, 0, logging.Discard())

	assert.Equal(t, "Veem raises $70M", n.Normalize(context.Background(), "<p>Veem raises <i>$70M</i></p>"))
}

func TestNormalizeSkipsEmptyInput(t *testing.T) {
	t.Parallel()

	gen := newFakeGenerator()
	n := NewNormalizer(gen, 0, logging.Discard())

	assert.Equal(t, "", n.Normalize(context.Background(), "<script>x()</script>"))
	assert.Equal(t, 0, gen.calls("summary"))
}

func TestNormalizeBoundsPrompt(t *testing.T) {
	t.Parallel()

	gen := newFakeGenerator()
	n := NewNormalizer(gen, 50, logging.Discard())

	long := strings.Repeat("Veem expands into Europe. ", 40)
	n.Normalize(context.Background(), long)

	require.Equal(t, 1, gen.calls("summary"))
	prompt := gen.prompts["summary"][0].User
	assert.Less(t, strings.Count(prompt, "Veem expands"), 40)
	assert.Contains(t, prompt, "Veem expands")
}
