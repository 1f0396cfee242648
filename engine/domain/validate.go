package domain

import "strings"

// ValidateIngest checks a document before it enters the pipeline.
func ValidateIngest(source, text string) error {
	if strings.TrimSpace(source) == "" {
		return NewValidationError("source", ErrEmptySource)
	}
	if text == "" {
		return NewValidationError("text", ErrEmptyText)
	}
	return nil
}

// ValidateQuery checks a retrieval query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return NewValidationError("query", ErrEmptyQuery)
	}
	return nil
}
