package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-side input problems.
var (
	ErrEmptyText         = errors.New("text is empty")
	ErrEmptySource       = errors.New("source is empty")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ErrRetrievalUnavailable marks retrieval failures caused by a dependency
// (embedder or vector store) rather than the caller's input. Handlers map
// it to 503.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// ValidationError wraps a sentinel with the offending field.
type ValidationError struct {
	Field   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Wrapped)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Wrapped: wrapped}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EmbedError marks a failure of the embedding model. Not retried; the
// request that triggered it fails as a whole.
type EmbedError struct {
	Cause error
}

func (e *EmbedError) Error() string { return fmt.Sprintf("embedding failed: %s", e.Cause) }
func (e *EmbedError) Unwrap() error { return e.Cause }

// IndexError marks a failure of the vector index. No partial-success state
// is exposed: the operation either completed or it did not.
type IndexError struct {
	Op    string // upsert, search, scroll, delete
	Cause error
}

func (e *IndexError) Error() string { return fmt.Sprintf("index %s failed: %s", e.Op, e.Cause) }
func (e *IndexError) Unwrap() error { return e.Cause }

// DeleteError is returned when the index accepted a delete but did not
// report full completion.
type DeleteError struct {
	Source string
	Status string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete of source %q did not complete: status %s", e.Source, e.Status)
}
