// Package ai builds the embedding backend selected by the settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/KKaradi/syfhack10year/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/KKaradi/syfhack10year/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/KKaradi/syfhack10year/internal/adapters/driven/embedding/openai"
	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and checks
// that its backend answers.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'syfhack config show' to check the settings",
			domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the embedding service for the configured
// provider without contacting it.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.EmbeddingProviderHash:
		return hash.NewEmbeddingService(settings.Dimensions), nil

	case domain.EmbeddingProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
		Timeout:    timeout(settings),
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
		Timeout:    timeout(settings),
	})
}

func timeout(settings *domain.EmbeddingSettings) time.Duration {
	if settings.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(settings.TimeoutSeconds) * time.Second
}
