package domain

const unknownDescription = "Unknown"

// DefaultCollectionName is the vector collection name reported by statistics.
const DefaultCollectionName = "confluence_docs"

// DefaultCorpusPath is the corpus directory used when none is configured.
const DefaultCorpusPath = "confluence_docs"

// EmbeddingProvider identifies the backend that computes embeddings.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderHash is the built-in offline feature-hashing embedder.
	EmbeddingProviderHash EmbeddingProvider = "hash"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderHash, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderHash:
		return "Feature hashing (offline)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies the vector store implementation.
type IndexBackend string

// Available vector index backends.
const (
	// IndexBackendMemory keeps vectors in process memory.
	IndexBackendMemory IndexBackend = "memory"

	// IndexBackendSQLite persists vectors in a local SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendWeaviate stores vectors in a Weaviate server.
	IndexBackendWeaviate IndexBackend = "weaviate"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendSQLite, IndexBackendWeaviate:
		return true
	default:
		return false
	}
}

// IsPersistent returns true if the backend survives process restarts.
func (b IndexBackend) IsPersistent() bool {
	return b == IndexBackendSQLite || b == IndexBackendWeaviate
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendMemory:
		return "In-memory (not persisted)"
	case IndexBackendSQLite:
		return "SQLite (local file)"
	case IndexBackendWeaviate:
		return "Weaviate (server)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's vector size when non-zero.
	Dimensions int

	// TimeoutSeconds bounds each embedding call.
	TimeoutSeconds int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Backend selects the vector store.
	Backend IndexBackend

	// DataDir is where local backends keep their files.
	DataDir string

	// WeaviateHost is host:port of the Weaviate server.
	WeaviateHost string

	// WeaviateScheme is http or https.
	WeaviateScheme string

	// WeaviateClass is the class name prefix for index generations.
	WeaviateClass string
}

// AppSettings is the typed view of the application configuration.
type AppSettings struct {
	Embedding EmbeddingSettings
	Index     IndexSettings

	// CorpusPath is the directory of HTML documents to index.
	CorpusPath string

	// RulesPath optionally points at a YAML rule-table override.
	RulesPath string

	// CacheDir is where the context cache keeps its files.
	// Empty means an in-memory cache.
	CacheDir string
}

// Defaults applied when a setting is absent.
const (
	DefaultEmbeddingTimeoutSeconds = 120
	DefaultWeaviateHost            = "localhost:8080"
	DefaultWeaviateScheme          = "http"
	DefaultWeaviateClass           = "SyfhackChunk"
)

// DefaultAppSettings returns the settings used when nothing is configured:
// the offline hash embedder over an in-memory index.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:       EmbeddingProviderHash,
			TimeoutSeconds: DefaultEmbeddingTimeoutSeconds,
		},
		Index: IndexSettings{
			Backend:        IndexBackendMemory,
			WeaviateHost:   DefaultWeaviateHost,
			WeaviateScheme: DefaultWeaviateScheme,
			WeaviateClass:  DefaultWeaviateClass,
		},
		CorpusPath: DefaultCorpusPath,
	}
}
