package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	s := NewEmbeddingService(64)

	a, err := s.Embed(context.Background(), "ServiceNow incident API")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "ServiceNow incident API")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(a, a)), 1e-5)
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	v, err := NewEmbeddingService(0).Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbed_SharedVocabularyIsCloser(t *testing.T) {
	s := NewEmbeddingService(DefaultDimensions)
	ctx := context.Background()

	query, _ := s.Embed(ctx, "customer database postgres")
	near, _ := s.Embed(ctx, "Database: customer records in postgres")
	far, _ := s.Embed(ctx, "Slack notification webhook for the marketing team")

	assert.Greater(t, cosine(query, near), cosine(query, far))
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(32)
	out, err := s.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	single, _ := s.Embed(context.Background(), "two")
	assert.Equal(t, single, out[1])
}

func TestEmbedBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbeddingService(8).EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
