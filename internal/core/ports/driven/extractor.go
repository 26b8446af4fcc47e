package driven

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// Extractor turns one raw corpus document into a structured Document.
// A document that cannot be parsed returns an error wrapping
// domain.ErrExtractionFailed.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract parses raw into a Document.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// Chunker splits a Document into ordered, retrievable chunks.
// Chunk ids must depend only on the document id and emission order.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk returns the chunks of doc in emission order.
	Chunk(doc *domain.Document) []domain.Chunk
}
