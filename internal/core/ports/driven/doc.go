// Package driven holds the ports the core services call out through.
//
// Adapters under internal/adapters/driven implement them: a CorpusSource
// lists raw HTML pages, an Extractor and a Chunker turn them into chunks,
// an EmbeddingService vectorises the chunks and a VectorIndex stores and
// ranks them. ConfigStore persists user settings.
//
// ContextCache is optional. RetrievalService works without it and simply
// recomputes every gathered context.
//
// This package may import domain and nothing else from the module.
package driven
