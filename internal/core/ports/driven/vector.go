package driven

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// VectorIndex is the persistent store of (id, vector, metadata, text) entries.
//
// Implementations must make ReplaceAll atomic to concurrent readers: a Query
// observes either the complete previous set or the complete new set.
type VectorIndex interface {
	// ReplaceAll discards the current contents and stores entries.
	// Ids must be non-empty and unique within the call.
	ReplaceAll(ctx context.Context, entries []domain.IndexedVector) error

	// Upsert inserts new entries and overwrites existing ones by id.
	// New ids are appended after the current contents.
	Upsert(ctx context.Context, entries []domain.IndexedVector) error

	// Query returns up to k entries ordered by ascending cosine distance.
	// Ties keep insertion order. A non-empty filter restricts candidates to
	// entries matching every key/value pair before ranking.
	// Querying an empty index returns an empty slice and no error.
	Query(ctx context.Context, vector []float32, k int, filter domain.MetadataFilter) ([]domain.QueryResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Sample returns up to limit entries in insertion order.
	// Distance is zero on sampled results.
	Sample(ctx context.Context, limit int) ([]domain.QueryResult, error)

	// Close releases resources.
	Close() error
}
