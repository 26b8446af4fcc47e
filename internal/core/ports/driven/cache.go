package driven

import "context"

// ContextCache memoises serialised retrieval results by request key.
type ContextCache interface {
	// Get returns the cached value for key. ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Invalidate drops every cached entry.
	Invalidate(ctx context.Context) error

	// Close releases resources.
	Close() error
}
