package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/adapters/driven/storage/memory"
	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(nil), WithLookupEnv(envMap(nil)))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, svc.GetDefaults(), *settings)
	assert.Equal(t, domain.EmbeddingProviderHash, settings.Embedding.Provider)
	assert.Equal(t, domain.IndexBackendMemory, settings.Index.Backend)
	assert.Equal(t, domain.DefaultCorpusPath, settings.CorpusPath)
	assert.NoError(t, svc.Validate())
}

func TestSettingsService_StoredAndEnvOverrides(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		KeyEmbedProvider: "ollama",
		KeyEmbedModel:    "stored-model",
		KeyEmbedTimeout:  int64(30),
		KeyIndexBackend:  "sqlite",
	})
	env := envMap(map[string]string{
		"SYFHACK_EMBEDDING_MODEL": "env-model",
		"SYFHACK_CORPUS_PATH":     "/srv/docs",
	})
	svc := NewSettingsService(store, WithLookupEnv(env))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "env-model", settings.Embedding.Model)
	assert.Equal(t, 30, settings.Embedding.TimeoutSeconds)
	assert.Equal(t, domain.IndexBackendSQLite, settings.Index.Backend)
	assert.Equal(t, "/srv/docs", settings.CorpusPath)
}

func TestSettingsService_OpenAIKeyFromEnv(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{KeyEmbedProvider: "openai"})

	svc := NewSettingsService(store, WithLookupEnv(envMap(nil)))
	assert.Error(t, svc.Validate())

	svc = NewSettingsService(store, WithLookupEnv(envMap(map[string]string{"OPENAI_API_KEY": "sk-test"})))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.NoError(t, svc.Validate())
}

func TestSettingsService_InvalidStoredValue(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{KeyIndexBackend: "postgres"})
	_, err := NewSettingsService(store, WithLookupEnv(envMap(nil))).Get()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore(nil)
	svc := NewSettingsService(store, WithLookupEnv(envMap(nil)))

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"provider", KeyEmbedProvider, "ollama", false},
		{"bad provider", KeyEmbedProvider, "cohere", true},
		{"backend", KeyIndexBackend, "weaviate", false},
		{"bad backend", KeyIndexBackend, "redis", true},
		{"int", KeyEmbedDimensions, "384", false},
		{"bad int", KeyEmbedTimeout, "soon", true},
		{"unknown key", "llm.model", "x", true},
		{"string", KeyCorpusPath, "docs", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, 384, store.Int(KeyEmbedDimensions))
	assert.Equal(t, "weaviate", store.String(KeyIndexBackend))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SYFHACK_WEAVIATE_HOST", EnvName(KeyWeaviateHost))
	assert.Equal(t, "SYFHACK_EMBEDDING_TIMEOUT_SECONDS", EnvName(KeyEmbedTimeout))
}

func TestSettingsService_Keys(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(nil))
	keys := svc.Keys()
	assert.Contains(t, keys, KeyCacheDir)
	keys[0] = "mutated"
	assert.Equal(t, KeyEmbedProvider, svc.Keys()[0])
}

func TestSettingsService_Reset(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{KeyIndexBackend: "sqlite"})
	svc := NewSettingsService(store, WithLookupEnv(envMap(nil)))

	require.NoError(t, svc.Reset(KeyIndexBackend))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().Index.Backend, settings.Index.Backend)
	assert.NoError(t, svc.Reset(KeyIndexBackend))
	assert.ErrorIs(t, svc.Reset("llm.model"), domain.ErrInvalidInput)
}
