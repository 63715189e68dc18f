package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
)

type verdict struct {
	Ok    bool     `json:"ok"`
	Score int      `json:"score"`
	Tags  []string `json:"tags"`
}

func testSchema() Schema {
	return Schema{
		Name: "verdict",
		Parameters: Object(map[string]any{
			"ok":    map[string]any{"type": "boolean"},
			"score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"tags":  EnumArray("tags", []string{"a", "b"}),
		}, "ok", "score"),
	}
}

func TestDecodeValid(t *testing.T) {
	t.Parallel()

	got, err := Decode[verdict](testSchema(), []byte(`{"ok":true,"score":42,"tags":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, verdict{Ok: true, Score: 42, Tags: []string{"a"}}, got)
}

func TestDecodeAcceptsWholeValuedFloats(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"ok":true,"score":85.0}`,
		`{"ok":true,"score":8.5e1}`,
	} {
		got, err := Decode[verdict](testSchema(), []byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, 85, got.Score, raw)
	}

	_, err := Decode[verdict](testSchema(), []byte(`{"ok":true,"score":85.5}`))
	require.ErrorIs(t, err, domain.ErrSchemaViolation)
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing required": `{"ok":true}`,
		"out of range":     `{"ok":true,"score":101}`,
		"wrong type":       `{"ok":"yes","score":1}`,
		"bad enum":         `{"ok":true,"score":1,"tags":["z"]}`,
		"not json":         `ok`,
	}

	for name, raw := range cases {
		_, err := Decode[verdict](testSchema(), []byte(raw))
		require.ErrorIs(t, err, domain.ErrSchemaViolation, name)
	}
}

func TestValidateEmpty(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, testSchema().Validate(nil), domain.ErrNoStructuredOutput)
}
