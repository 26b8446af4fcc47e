package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyEmbedProvider   = "embedding.provider"
	KeyEmbedModel      = "embedding.model"
	KeyEmbedBaseURL    = "embedding.base_url"
	KeyEmbedAPIKey     = "embedding.api_key"
	KeyEmbedDimensions = "embedding.dimensions"
	KeyEmbedTimeout    = "embedding.timeout_seconds"
	KeyIndexBackend    = "index.backend"
	KeyIndexDataDir    = "index.data_dir"
	KeyWeaviateHost    = "weaviate.host"
	KeyWeaviateScheme  = "weaviate.scheme"
	KeyWeaviateClass   = "weaviate.class"
	KeyCorpusPath      = "corpus.path"
	KeyRulesPath       = "rules.path"
	KeyCacheDir        = "cache.dir"
)

// EnvPrefix prefixes environment overrides: embedding.model is read from
// SYFHACK_EMBEDDING_MODEL.
const EnvPrefix = "SYFHACK_"

// envOpenAIKey is consulted for the API key when nothing else sets it.
const envOpenAIKey = "OPENAI_API_KEY"

var settingsKeys = []string{
	KeyEmbedProvider, KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey,
	KeyEmbedDimensions, KeyEmbedTimeout,
	KeyIndexBackend, KeyIndexDataDir,
	KeyWeaviateHost, KeyWeaviateScheme, KeyWeaviateClass,
	KeyCorpusPath, KeyRulesPath, KeyCacheDir,
}

var intKeys = map[string]bool{
	KeyEmbedDimensions: true,
	KeyEmbedTimeout:    true,
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) { s.lookupEnv = fn }
}

// SettingsService reads typed settings out of a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:       domain.EmbeddingProvider(s.getString(KeyEmbedProvider, defaults.Embedding.Provider.String())),
			Model:          s.getString(KeyEmbedModel, ""),
			BaseURL:        s.getString(KeyEmbedBaseURL, ""),
			APIKey:         s.getString(KeyEmbedAPIKey, ""),
			Dimensions:     s.getInt(KeyEmbedDimensions, 0),
			TimeoutSeconds: s.getInt(KeyEmbedTimeout, defaults.Embedding.TimeoutSeconds),
		},
		Index: domain.IndexSettings{
			Backend:        domain.IndexBackend(s.getString(KeyIndexBackend, defaults.Index.Backend.String())),
			DataDir:        s.getString(KeyIndexDataDir, ""),
			WeaviateHost:   s.getString(KeyWeaviateHost, defaults.Index.WeaviateHost),
			WeaviateScheme: s.getString(KeyWeaviateScheme, defaults.Index.WeaviateScheme),
			WeaviateClass:  s.getString(KeyWeaviateClass, defaults.Index.WeaviateClass),
		},
		CorpusPath: s.getString(KeyCorpusPath, defaults.CorpusPath),
		RulesPath:  s.getString(KeyRulesPath, ""),
		CacheDir:   s.getString(KeyCacheDir, ""),
	}

	if settings.Embedding.APIKey == "" {
		if key, ok := s.lookupEnv(envOpenAIKey); ok {
			settings.Embedding.APIKey = key
		}
	}

	if !settings.Embedding.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if !settings.Index.Backend.IsValid() {
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrInvalidInput, settings.Index.Backend)
	}
	return settings, nil
}

// Set stores one key. Integer keys must parse; provider and backend must
// name a known value.
func (s *SettingsService) Set(key, value string) error {
	if !isSettingsKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		return s.save(key, n)
	case key == KeyEmbedProvider && !domain.EmbeddingProvider(value).IsValid():
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, value)
	case key == KeyIndexBackend && !domain.IndexBackend(value).IsValid():
		return fmt.Errorf("%w: index backend %q", domain.ErrInvalidInput, value)
	}
	return s.save(key, value)
}

func (s *SettingsService) save(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Reset removes the stored value of key so its default applies again.
// Environment overrides still win afterwards.
func (s *SettingsService) Reset(key string) error {
	if !isSettingsKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised key in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingsKeys...)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q requires an API key (set %s or %s)",
			settings.Embedding.Provider.Description(), envOpenAIKey, EnvName(KeyEmbedAPIKey))
	}
	if settings.Index.Backend == domain.IndexBackendWeaviate && settings.Index.WeaviateHost == "" {
		return fmt.Errorf("%w: %s is required for the weaviate backend", domain.ErrInvalidInput, KeyWeaviateHost)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with environment overrides and defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val, ok := s.lookupEnv(EnvName(key)); ok && val != "" {
		return val
	}
	val := s.configStore.String(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val, ok := s.lookupEnv(EnvName(key)); ok {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	val := s.configStore.Int(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func isSettingsKey(key string) bool {
	for _, k := range settingsKeys {
		if k == key {
			return true
		}
	}
	return false
}
