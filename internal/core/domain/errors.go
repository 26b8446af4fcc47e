package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionFailed indicates a single document could not be parsed.
	// Indexing skips the document and continues with the rest of the corpus.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingFailed indicates the embedding backend was unavailable,
	// returned an error or did not answer before the deadline.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates no embedding service is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector store cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrInvalidStep indicates a workflow step is missing required fields.
	ErrInvalidStep = errors.New("invalid automation step")
)

// ExtractionError describes why one document failed extraction.
type ExtractionError struct {
	DocumentID string
	Reason     string
}

// Error implements error.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.DocumentID, e.Reason)
}

// Unwrap returns ErrExtractionFailed so callers can use errors.Is.
func (e *ExtractionError) Unwrap() error {
	return ErrExtractionFailed
}

// ValidationError lists the fields of a workflow step that failed validation.
type ValidationError struct {
	StepID string
	Fields []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	id := e.StepID
	if id == "" {
		id = "<unnamed>"
	}
	return fmt.Sprintf("step %s: missing or invalid fields: %s", id, strings.Join(e.Fields, ", "))
}

// Unwrap returns ErrInvalidStep so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidStep
}
