package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultHost        = "localhost:8080"
	DefaultScheme      = "http"
	DefaultClassPrefix = "SyfhackChunk"
	DefaultBatchSize   = 100
)

// Fixed properties stored on every object.
const (
	propChunkID  = "chunk_id"
	propText     = "text"
	propSeq      = "seq"
	propMetadata = "metadata_json"
)

// queryOverfetch is how many results past k a query asks for, so equal
// distances at the cut are ordered by seq here rather than by the server.
// Ties wider than this margin still depend on server order.
const queryOverfetch = 16

// chunkNamespace seeds deterministic object ids.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("syfhack.chunk"))

// Config holds configuration for the Weaviate index.
type Config struct {
	// Host is host:port of the Weaviate server.
	Host string

	// Scheme is http or https.
	Scheme string

	// ClassPrefix names the generation classes.
	ClassPrefix string

	// BatchSize is the number of objects per import request.
	BatchSize int

	// Logger receives warnings about leftover generations.
	Logger *slog.Logger
}

// Index is a Weaviate-backed vector index.
type Index struct {
	client    *weaviate.Client
	prefix    string
	batchSize int
	log       *slog.Logger

	// writeMu serialises writers; mu guards active and generation and is
	// held for reading for the duration of every query.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	active     string
	generation int
}

// New connects to Weaviate, checks readiness, and adopts the newest
// existing generation.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	if cfg.ClassPrefix == "" {
		cfg.ClassPrefix = DefaultClassPrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: cfg.Host, Scheme: cfg.Scheme})
	if err != nil {
		return nil, fmt.Errorf("%w: create weaviate client: %w", domain.ErrIndexUnavailable, err)
	}

	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: weaviate readiness: %w", domain.ErrIndexUnavailable, err)
	}
	if !ready {
		return nil, fmt.Errorf("%w: weaviate at %s is not ready", domain.ErrIndexUnavailable, cfg.Host)
	}

	idx := &Index{
		client:    client,
		prefix:    cfg.ClassPrefix,
		batchSize: cfg.BatchSize,
		log:       cfg.Logger,
	}
	if err := idx.adopt(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// adopt picks the highest generation present on the server and drops the rest.
func (x *Index) adopt(ctx context.Context) error {
	dump, err := x.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: read schema: %w", domain.ErrIndexUnavailable, err)
	}

	var names []string
	for _, class := range dump.Classes {
		names = append(names, class.Class)
	}
	active, gen, stale := pickGeneration(x.prefix, names)
	x.active, x.generation = active, gen

	for _, name := range stale {
		x.dropClass(ctx, name)
	}
	return nil
}

// pickGeneration returns the newest "<prefix>_<n>" class, its number, and
// every older generation.
func pickGeneration(prefix string, classes []string) (string, int, []string) {
	type gen struct {
		name string
		n    int
	}
	var gens []gen
	for _, name := range classes {
		if n, ok := generationOf(prefix, name); ok {
			gens = append(gens, gen{name, n})
		}
	}
	if len(gens) == 0 {
		return "", 0, nil
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i].n > gens[j].n })

	stale := make([]string, 0, len(gens)-1)
	for _, g := range gens[1:] {
		stale = append(stale, g.name)
	}
	return gens[0].name, gens[0].n, stale
}

func generationOf(prefix, class string) (int, bool) {
	rest, ok := strings.CutPrefix(class, prefix+"_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func className(prefix string, n int) string {
	return fmt.Sprintf("%s_%d", prefix, n)
}

// ObjectID returns the Weaviate object id for a chunk id.
func ObjectID(chunkID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String())
}

func classSchema(name string) *models.Class {
	props := []*models.Property{
		{Name: propChunkID, DataType: []string{"text"}, Tokenization: "field"},
		{Name: propText, DataType: []string{"text"}, Tokenization: "word"},
		{Name: propSeq, DataType: []string{"int"}},
		{Name: propMetadata, DataType: []string{"text"}, Tokenization: "field"},
	}
	for _, key := range domain.MetadataKeys {
		props = append(props, &models.Property{Name: key, DataType: []string{"text"}, Tokenization: "field"})
	}
	return &models.Class{
		Class:       name,
		Description: "Indexed document chunks",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]any{
			"distance": "cosine",
		},
		Properties: props,
	}
}

// ReplaceAll imports entries into a new generation and switches to it.
func (x *Index) ReplaceAll(ctx context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()
	return x.replaceLocked(ctx, entries)
}

// replaceLocked builds the next generation. The caller holds writeMu.
func (x *Index) replaceLocked(ctx context.Context, entries []domain.IndexedVector) error {
	x.mu.RLock()
	next := x.generation + 1
	x.mu.RUnlock()

	name := className(x.prefix, next)
	if err := x.client.Schema().ClassCreator().WithClass(classSchema(name)).Do(ctx); err != nil {
		return fmt.Errorf("%w: create class %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	if err := x.importObjects(ctx, name, entries, 0); err != nil {
		x.dropClass(ctx, name)
		return err
	}

	x.mu.Lock()
	old := x.active
	x.active, x.generation = name, next
	x.mu.Unlock()

	if old != "" {
		x.dropClass(ctx, old)
	}
	return nil
}

// Upsert writes entries into the active generation. Existing ids keep their
// position; new ids are appended.
func (x *Index) Upsert(ctx context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	x.mu.RLock()
	active := x.active
	x.mu.RUnlock()

	if active == "" {
		return x.replaceLocked(ctx, entries)
	}

	next, err := x.count(ctx, active)
	if err != nil {
		return err
	}
	for _, e := range entries {
		seq, found, err := x.seqOf(ctx, active, e.ID)
		if err != nil {
			return err
		}
		if !found {
			seq = next
			next++
		}
		if err := x.importObjects(ctx, active, []domain.IndexedVector{e}, seq); err != nil {
			return err
		}
	}
	return nil
}

// importObjects batch-imports entries with seq numbers starting at base.
func (x *Index) importObjects(ctx context.Context, class string, entries []domain.IndexedVector, base int) error {
	for start := 0; start < len(entries); start += x.batchSize {
		end := min(start+x.batchSize, len(entries))

		objects := make([]*models.Object, 0, end-start)
		for i, e := range entries[start:end] {
			obj, err := toObject(class, e, base+start+i)
			if err != nil {
				return err
			}
			objects = append(objects, obj)
		}

		resp, err := x.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("%w: batch import: %w", domain.ErrIndexUnavailable, err)
		}
		for _, item := range resp {
			if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
				return fmt.Errorf("%w: batch import object %s: %s",
					domain.ErrIndexUnavailable, item.ID, item.Result.Errors.Error[0].Message)
			}
		}
	}
	return nil
}

func toObject(class string, e domain.IndexedVector, seq int) (*models.Object, error) {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata for %s: %w", e.ID, err)
	}

	props := map[string]any{
		propChunkID:  e.ID,
		propText:     e.Text,
		propSeq:      seq,
		propMetadata: string(metadataJSON),
	}
	for _, key := range domain.MetadataKeys {
		if v, ok := metadata[key]; ok {
			props[key] = v
		}
	}

	return &models.Object{
		Class:      class,
		ID:         ObjectID(e.ID),
		Vector:     e.Vector,
		Properties: props,
	}, nil
}

// Query returns up to k objects nearest to vector.
func (x *Index) Query(ctx context.Context, vector []float32, k int, filter domain.MetadataFilter) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}
	where, err := whereFilter(filter)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.active == "" {
		return []domain.QueryResult{}, nil
	}

	get := x.client.GraphQL().Get().
		WithClassName(x.active).
		WithFields(resultFields(true)...).
		WithNearVector(x.client.GraphQL().NearVectorArgBuilder().WithVector(vector)).
		WithLimit(k + queryOverfetch)
	if where != nil {
		get = get.WithWhere(where)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: near vector query: %w", domain.ErrIndexUnavailable, err)
	}
	if err := graphQLError(resp); err != nil {
		return nil, err
	}

	results, err := parseResults(resp, x.active)
	if err != nil {
		return nil, err
	}
	return topK(results, k), nil
}

// topK orders results by distance, then insertion order, and keeps k.
func topK(results []scored, k int) []domain.QueryResult {
	sortResults(results)
	if len(results) > k {
		results = results[:k]
	}
	return stripSeq(results)
}

// whereFilter builds an AND of equality clauses. Keys outside the schema
// are rejected.
func whereFilter(filter domain.MetadataFilter) (*filters.WhereBuilder, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		if !isMetadataKey(key) {
			return nil, fmt.Errorf("%w: cannot filter on metadata key %q", domain.ErrInvalidInput, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	operands := make([]*filters.WhereBuilder, 0, len(keys))
	for _, key := range keys {
		operands = append(operands, filters.Where().
			WithPath([]string{key}).
			WithOperator(filters.Equal).
			WithValueString(filter[key]))
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands), nil
}

func isMetadataKey(key string) bool {
	for _, k := range domain.MetadataKeys {
		if k == key {
			return true
		}
	}
	return false
}

func resultFields(withDistance bool) []graphql.Field {
	fields := []graphql.Field{
		{Name: propChunkID},
		{Name: propText},
		{Name: propSeq},
		{Name: propMetadata},
	}
	if withDistance {
		fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}})
	}
	return fields
}

func graphQLError(resp *models.GraphQLResponse) error {
	if resp != nil && len(resp.Errors) > 0 {
		return fmt.Errorf("%w: graphql: %s", domain.ErrIndexUnavailable, resp.Errors[0].Message)
	}
	return nil
}

// scored carries the insertion sequence alongside a result for tie-breaking.
type scored struct {
	domain.QueryResult
	seq int
}

func parseResults(resp *models.GraphQLResponse, class string) ([]scored, error) {
	if resp == nil {
		return nil, nil
	}
	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	objects, ok := get[class].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]scored, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			continue
		}
		r := scored{seq: intValue(m[propSeq])}
		r.ID, _ = m[propChunkID].(string)
		r.Text, _ = m[propText].(string)

		r.Metadata = map[string]string{}
		if raw, _ := m[propMetadata].(string); raw != "" {
			if err := json.Unmarshal([]byte(raw), &r.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", r.ID, err)
			}
		}
		if additional, ok := m["_additional"].(map[string]any); ok {
			r.Distance, _ = additional["distance"].(float64)
		}
		out = append(out, r)
	}
	return out, nil
}

// intValue reads a GraphQL number, which decodes as float64.
func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}

func sortResults(results []scored) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].seq < results[j].seq
	})
}

func stripSeq(results []scored) []domain.QueryResult {
	out := make([]domain.QueryResult, len(results))
	for i, r := range results {
		out[i] = r.QueryResult
	}
	return out
}

// seqOf looks up the stored sequence number of a chunk id.
func (x *Index) seqOf(ctx context.Context, class, chunkID string) (int, bool, error) {
	resp, err := x.client.GraphQL().Get().
		WithClassName(class).
		WithFields(graphql.Field{Name: propSeq}).
		WithWhere(filters.Where().
			WithPath([]string{propChunkID}).
			WithOperator(filters.Equal).
			WithValueString(chunkID)).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("%w: lookup %s: %w", domain.ErrIndexUnavailable, chunkID, err)
	}
	if err := graphQLError(resp); err != nil {
		return 0, false, err
	}
	found, err := parseResults(resp, class)
	if err != nil || len(found) == 0 {
		return 0, false, err
	}
	return found[0].seq, true, nil
}

// Count returns the number of objects in the active generation.
func (x *Index) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.active == "" {
		return 0, nil
	}
	return x.count(ctx, x.active)
}

func (x *Index) count(ctx context.Context, class string) (int, error) {
	resp, err := x.client.GraphQL().Aggregate().
		WithClassName(class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregate: %w", domain.ErrIndexUnavailable, err)
	}
	if err := graphQLError(resp); err != nil {
		return 0, err
	}
	return parseCount(resp, class), nil
}

func parseCount(resp *models.GraphQLResponse, class string) int {
	agg, ok := resp.Data["Aggregate"].(map[string]any)
	if !ok {
		return 0
	}
	groups, ok := agg[class].([]any)
	if !ok || len(groups) == 0 {
		return 0
	}
	group, ok := groups[0].(map[string]any)
	if !ok {
		return 0
	}
	meta, ok := group["meta"].(map[string]any)
	if !ok {
		return 0
	}
	return intValue(meta["count"])
}

// Sample returns up to limit objects in insertion order.
func (x *Index) Sample(ctx context.Context, limit int) ([]domain.QueryResult, error) {
	if limit <= 0 {
		return []domain.QueryResult{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.active == "" {
		return []domain.QueryResult{}, nil
	}

	resp, err := x.client.GraphQL().Get().
		WithClassName(x.active).
		WithFields(resultFields(false)...).
		WithSort(graphql.Sort{Path: []string{propSeq}, Order: graphql.Asc}).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: sample: %w", domain.ErrIndexUnavailable, err)
	}
	if err := graphQLError(resp); err != nil {
		return nil, err
	}
	results, err := parseResults(resp, x.active)
	if err != nil {
		return nil, err
	}
	return stripSeq(results), nil
}

// dropClass deletes a generation, logging rather than failing.
func (x *Index) dropClass(ctx context.Context, name string) {
	if err := x.client.Schema().ClassDeleter().WithClassName(name).Do(ctx); err != nil {
		x.log.Warn("failed to drop weaviate class", "class", name, "error", err)
	}
}

// Close releases resources. The Weaviate client holds no open connections.
func (x *Index) Close() error {
	return nil
}
