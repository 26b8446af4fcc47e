package driven

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// CorpusSource enumerates the raw documents of a corpus.
type CorpusSource interface {
	// Root returns a human-readable description of where documents come from.
	Root() string

	// List returns every document of the corpus in a stable order.
	List(ctx context.Context) ([]domain.RawDocument, error)

	// Watch emits a change for every document created, updated or deleted
	// until ctx is cancelled. The channel is closed on return.
	Watch(ctx context.Context) (<-chan domain.CorpusChange, error)
}
