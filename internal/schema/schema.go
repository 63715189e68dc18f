// Package schema declares closed output contracts for generation calls and validates responses against them.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"LeadScout/internal/domain"
)

// Schema is a named JSON-schema object. Name doubles as the forced function name for tool-calling backends.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Validate checks raw JSON against the schema parameters.
func (s Schema) Validate(raw []byte) error {
	if len(raw) == 0 {
		return domain.ErrNoStructuredOutput
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(s.Parameters),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, s.Name, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			messages = append(messages, e.String())
		}
		return fmt.Errorf("%w: %s: %s", domain.ErrSchemaViolation, s.Name, strings.Join(messages, "; "))
	}

	return nil
}

// Decode validates raw and unmarshals it into T. Either the value conforms or an error is returned.
func Decode[T any](s Schema, raw []byte) (T, error) {
	var out T
	if err := s.Validate(raw); err != nil {
		return out, err
	}
	normalized, err := wholeNumbers(raw)
	if err != nil {
		return out, fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, s.Name, err)
	}
	if err := json.Unmarshal(normalized, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, s.Name, err)
	}
	return out, nil
}

// wholeNumbers rewrites whole-valued numbers such as 85.0 or 8.5e1 as integer literals.
// JSON schema counts them as integers, encoding/json does not.
func wholeNumbers(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeNumbers(v))
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}

// Object builds an object schema with the given properties and required keys.
func Object(properties map[string]any, required ...string) map[string]any {
	obj := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		obj["required"] = required
	}
	return obj
}

// StringArray is an array-of-strings property.
func StringArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

// EnumArray is an array property restricted to values.
func EnumArray(description string, values []string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string", "enum": values},
		"description": description,
	}
}
