package driven

import "context"

// EmbeddingService turns text into fixed-width vectors. The hash, ollama
// and openai adapters implement it; VectorIndex stores what it produces.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text in input order. An empty
	// batch must not reach the backend.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of every returned vector.
	Dimensions() int

	ModelName() string

	// Ping makes a cheap request that proves the backend is usable.
	Ping(ctx context.Context) error

	Close() error
}
