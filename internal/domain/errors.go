package domain

import "errors"

var (
	// ErrDuplicateURL is returned by document stores when the url uniqueness constraint rejects an insert.
	ErrDuplicateURL = errors.New("lead url already stored")
	// ErrNotFound is returned when a lookup by id finds nothing.
	ErrNotFound = errors.New("lead not found")
	// ErrDimensionMismatch marks an embedding whose length differs from the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingImmutable is returned when an embedding is assigned twice.
	ErrEmbeddingImmutable = errors.New("lead embedding already set")
	// ErrUnknownCompany marks a lead whose company is not tracked by its target.
	ErrUnknownCompany = errors.New("company is not tracked")
	// ErrInvalidLookback marks a malformed lookback window.
	ErrInvalidLookback = errors.New("lookback must be between 1d and 30d")
	// ErrNoStructuredOutput is returned when a generation call did not produce the declared structure.
	ErrNoStructuredOutput = errors.New("no structured output in response")
	// ErrSchemaViolation is returned when structured output does not match its schema.
	ErrSchemaViolation = errors.New("structured output violates schema")
)
