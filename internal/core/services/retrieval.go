package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
	"github.com/KKaradi/syfhack10year/internal/logger"
	"github.com/KKaradi/syfhack10year/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	DefaultSearchLimit        = 5
	DefaultTypeSearchLimit    = 10
	DefaultDatabaseLimit      = 5
	DefaultContextLimit       = 10
	DefaultToolContextLimit   = 5
	DefaultStatsSampleSize    = 100
	DefaultExtractConcurrency = 8
	DefaultEmbedTimeout       = 2 * time.Minute

	toolQuerySuffix = " integration automation"
)

// RetrievalConfig holds retrieval service settings.
// Zero values are replaced by the defaults above.
type RetrievalConfig struct {
	// EmbedTimeout bounds every embedding call.
	EmbedTimeout time.Duration

	// ExtractConcurrency bounds parallel document extraction.
	ExtractConcurrency int

	// CollectionName is reported by Stats.
	CollectionName string

	// StatsSampleSize is how many entries Stats inspects for histograms.
	StatsSampleSize int

	// TracerProvider receives the service's spans. Nil uses the global one.
	TracerProvider trace.TracerProvider
}

func (c RetrievalConfig) withDefaults() RetrievalConfig {
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = DefaultEmbedTimeout
	}
	if c.ExtractConcurrency <= 0 {
		c.ExtractConcurrency = DefaultExtractConcurrency
	}
	if c.CollectionName == "" {
		c.CollectionName = domain.DefaultCollectionName
	}
	if c.StatsSampleSize <= 0 {
		c.StatsSampleSize = DefaultStatsSampleSize
	}
	return c
}

// RetrievalService builds the vector index from a corpus and answers queries.
type RetrievalService struct {
	extractor driven.Extractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	cache     driven.ContextCache
	cfg       RetrievalConfig
	tracer    trace.Tracer
}

// NewRetrievalService creates a new retrieval service.
// The cache parameter is optional (can be nil).
func NewRetrievalService(
	extractor driven.Extractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cache driven.ContextCache,
	cfg RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		cache:     cache,
		cfg:       cfg.withDefaults(),
		tracer:    newTracer(cfg.TracerProvider),
	}
}

// IndexCorpus rebuilds the whole index from docs.
//
// Documents are extracted in parallel; a document that fails extraction is
// skipped and reported in the result. All chunk texts are embedded in one
// batch and the index is replaced exactly once.
func (s *RetrievalService) IndexCorpus(
	ctx context.Context, docs []domain.RawDocument,
) (result domain.IndexResult, err error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.IndexCorpus")
	defer func() {
		metrics.IndexRuns.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "index corpus failed")
		}
		span.End()
	}()

	logger.Section("Corpus Indexing")
	logger.Debug("Documents: %d", len(docs))

	extracted, failures, err := s.extractAll(ctx, docs)
	if err != nil {
		return domain.IndexResult{}, err
	}

	var chunks []domain.Chunk
	seenDocs := make(map[string]string)
	for i, doc := range extracted {
		if doc == nil {
			continue
		}
		if prev, dup := seenDocs[doc.ID]; dup {
			failures = append(failures, fmt.Sprintf("%s: duplicate document id %q (already indexed from %s)",
				docs[i].URI, doc.ID, prev))
			continue
		}
		seenDocs[doc.ID] = docs[i].URI
		result.Documents++
		chunks = append(chunks, s.chunker.Chunk(doc)...)
	}
	result.Skipped = len(failures)
	result.Failures = failures
	for _, f := range failures {
		logger.Warn("Skipped: %s", f)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return domain.IndexResult{}, fmt.Errorf("embed chunks: %w", err)
	}

	entries := make([]domain.IndexedVector, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexedVector{
			ID:       chunks[i].ID,
			Vector:   vectors[i],
			Metadata: chunks[i].Metadata,
			Text:     chunks[i].Content,
		}
	}
	if err := s.index.ReplaceAll(ctx, entries); err != nil {
		return domain.IndexResult{}, fmt.Errorf("replace index: %w", err)
	}
	result.Chunks = len(entries)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Warn("Failed to invalidate context cache: %v", err)
		}
	}

	metrics.ChunksIndexed.Add(float64(result.Chunks))
	metrics.DocumentsSkipped.Add(float64(result.Skipped))
	span.SetAttributes(
		attribute.Int("documents", result.Documents),
		attribute.Int("chunks", result.Chunks),
		attribute.Int("skipped", result.Skipped),
	)
	logger.Info("Indexed %d chunk(s) from %d document(s), skipped %d",
		result.Chunks, result.Documents, result.Skipped)
	return result, nil
}

// extractAll extracts docs in parallel. The returned slice is aligned with
// docs; a nil entry marks a skipped document.
func (s *RetrievalService) extractAll(
	ctx context.Context, docs []domain.RawDocument,
) ([]*domain.Document, []string, error) {
	extracted := make([]*domain.Document, len(docs))
	errs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ExtractConcurrency)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.extractor.Extract(gctx, &docs[i])
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				errs[i] = err
				return nil
			}
			extracted[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extract documents: %w", err)
	}

	var failures []string
	for i, err := range errs {
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", docs[i].URI, err))
		}
	}
	return extracted, failures, nil
}

// embed runs one batch through the embedding service under the configured
// timeout. Every failure is reported as domain.ErrEmbeddingFailed.
func (s *RetrievalService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// Search returns up to k chunks nearest to query. An empty query returns
// an empty list without calling the embedding service.
func (s *RetrievalService) Search(
	ctx context.Context, query string, k int, filter domain.MetadataFilter,
) (results []domain.QueryResult, err error) {
	start := time.Now()
	defer func() {
		metrics.SearchLatency.WithLabelValues(metrics.Status(err)).Observe(time.Since(start).Seconds())
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.QueryResult{}, nil
	}
	if k <= 0 {
		k = DefaultSearchLimit
	}
	logger.Debug("Search %q k=%d filter=%v", query, k, filter)

	vectors, err := s.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err = s.index.Query(ctx, vectors[0], k, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Found %d result(s)", len(results))
	return results, nil
}

// SearchByResourceType finds resource chunks for a resource type.
func (s *RetrievalService) SearchByResourceType(
	ctx context.Context, resourceType string, k int,
) ([]domain.QueryResult, error) {
	if k <= 0 {
		k = DefaultTypeSearchLimit
	}
	return s.Search(ctx, resourceType+" resources tools services", k,
		domain.MetadataFilter{domain.MetaChunkType: string(domain.ChunkResource)})
}

// SearchByLanguage finds chunks related to a programming language.
func (s *RetrievalService) SearchByLanguage(
	ctx context.Context, language string, k int,
) ([]domain.QueryResult, error) {
	if k <= 0 {
		k = DefaultTypeSearchLimit
	}
	return s.Search(ctx, language+" programming development", k, nil)
}

// SearchDatabases finds database chunks for query.
func (s *RetrievalService) SearchDatabases(
	ctx context.Context, query string, k int,
) ([]domain.QueryResult, error) {
	if k <= 0 {
		k = DefaultDatabaseLimit
	}
	return s.Search(ctx, query, k,
		domain.MetadataFilter{domain.MetaChunkType: string(domain.ChunkDatabase)})
}

// GatherContext searches for the description and for every tool, then
// keeps the first occurrence of each resource and database by name.
func (s *RetrievalService) GatherContext(
	ctx context.Context, description string, toolNames []string,
) (domain.AutomationContext, error) {
	ctx, span := s.tracer.Start(ctx, "retrieval.GatherContext")
	defer span.End()

	logger.Section("Gather Context")

	key := contextCacheKey(description, toolNames)
	if cached, ok := s.cachedContext(ctx, key); ok {
		logger.Debug("Context cache hit")
		return cached, nil
	}

	results, err := s.Search(ctx, description, DefaultContextLimit, nil)
	if err != nil {
		span.RecordError(err)
		return domain.AutomationContext{}, err
	}
	for _, tool := range toolNames {
		toolResults, err := s.Search(ctx, tool+toolQuerySuffix, DefaultToolContextLimit, nil)
		if err != nil {
			span.RecordError(err)
			return domain.AutomationContext{}, err
		}
		results = append(results, toolResults...)
	}

	out := domain.NewAutomationContext()
	seenResources := make(map[string]bool)
	seenDatabases := make(map[string]bool)
	for _, r := range results {
		switch r.Kind() {
		case domain.ChunkResource:
			name := r.Metadata[domain.MetaResourceName]
			if seenResources[name] {
				continue
			}
			seenResources[name] = true
			out.Resources = append(out.Resources, domain.ResourceContext{
				Name:       name,
				Type:       r.Metadata[domain.MetaResourceType],
				Owner:      r.Metadata[domain.MetaOwner],
				Languages:  r.Metadata[domain.MetaLanguages],
				Frameworks: r.Metadata[domain.MetaFrameworks],
				Document:   r.Text,
			})
		case domain.ChunkDatabase:
			name := r.Metadata[domain.MetaDatabaseName]
			if seenDatabases[name] {
				continue
			}
			seenDatabases[name] = true
			out.Databases = append(out.Databases, domain.DatabaseContext{
				Name:     name,
				Type:     r.Metadata[domain.MetaDatabaseType],
				Owner:    r.Metadata[domain.MetaOwner],
				Document: r.Text,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("resources", len(out.Resources)),
		attribute.Int("databases", len(out.Databases)),
	)
	logger.Info("Context: %d resource(s), %d database(s)", len(out.Resources), len(out.Databases))
	s.storeContext(ctx, key, out)
	return out, nil
}

func (s *RetrievalService) cachedContext(ctx context.Context, key string) (domain.AutomationContext, bool) {
	if s.cache == nil {
		return domain.AutomationContext{}, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.ContextCacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Context cache read failed: %v", err)
		return domain.AutomationContext{}, false
	}
	if !ok {
		metrics.ContextCacheLookups.WithLabelValues("miss").Inc()
		return domain.AutomationContext{}, false
	}
	var out domain.AutomationContext
	if err := json.Unmarshal(data, &out); err != nil {
		metrics.ContextCacheLookups.WithLabelValues("error").Inc()
		logger.Warn("Discarding corrupt context cache entry: %v", err)
		return domain.AutomationContext{}, false
	}
	metrics.ContextCacheLookups.WithLabelValues("hit").Inc()
	return out, true
}

func (s *RetrievalService) storeContext(ctx context.Context, key string, value domain.AutomationContext) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode context: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		logger.Warn("Failed to cache context: %v", err)
	}
}

// contextCacheKey derives a stable key from the request.
func contextCacheKey(description string, toolNames []string) string {
	data, _ := json.Marshal(struct {
		D string   `json:"d"`
		T []string `json:"t"`
	}{description, toolNames})
	return "context/" + uuid.NewSHA1(uuid.NameSpaceOID, data).String()
}

// Stats reports the entry count plus chunk-type and resource-type
// histograms over a sample of the index.
func (s *RetrievalService) Stats(ctx context.Context) (domain.IndexStats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("count index: %w", err)
	}
	sample, err := s.index.Sample(ctx, s.cfg.StatsSampleSize)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("sample index: %w", err)
	}

	stats := domain.IndexStats{
		TotalChunks:    count,
		ChunkTypes:     make(map[string]int),
		ResourceTypes:  make(map[string]int),
		CollectionName: s.cfg.CollectionName,
	}
	for _, r := range sample {
		kind := valueOr(r.Metadata, domain.MetaChunkType, "unknown")
		stats.ChunkTypes[kind]++
		if kind == string(domain.ChunkResource) {
			stats.ResourceTypes[valueOr(r.Metadata, domain.MetaResourceType, "unknown")]++
		}
	}
	return stats, nil
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
