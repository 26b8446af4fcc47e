package weaviate

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

func TestPickGeneration(t *testing.T) {
	active, gen, stale := pickGeneration("Chunk", []string{
		"Chunk_2", "Other_9", "Chunk_10", "Chunk_x", "Chunk_1", "ChunkExtra_3",
	})
	assert.Equal(t, "Chunk_10", active)
	assert.Equal(t, 10, gen)
	assert.ElementsMatch(t, []string{"Chunk_2", "Chunk_1"}, stale)

	active, gen, stale = pickGeneration("Chunk", nil)
	assert.Empty(t, active)
	assert.Zero(t, gen)
	assert.Empty(t, stale)
}

func TestObjectID_Deterministic(t *testing.T) {
	a := ObjectID("platform_chunk_0")
	assert.Equal(t, a, ObjectID("platform_chunk_0"))
	assert.NotEqual(t, a, ObjectID("platform_chunk_1"))
	assert.True(t, a.String() != "")
}

func TestClassSchema(t *testing.T) {
	class := classSchema("Chunk_1")
	assert.Equal(t, "none", class.Vectorizer)

	names := map[string]bool{}
	for _, p := range class.Properties {
		names[p.Name] = true
	}
	for _, key := range append([]string{propChunkID, propText, propSeq, propMetadata}, domain.MetadataKeys...) {
		assert.True(t, names[key], "missing property %s", key)
	}
}

func TestWhereFilter(t *testing.T) {
	where, err := whereFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, where)

	where, err = whereFilter(domain.MetadataFilter{domain.MetaChunkType: "database"})
	require.NoError(t, err)
	assert.NotNil(t, where)

	where, err = whereFilter(domain.MetadataFilter{domain.MetaChunkType: "resource", domain.MetaOwner: "ops"})
	require.NoError(t, err)
	assert.NotNil(t, where)

	_, err = whereFilter(domain.MetadataFilter{"colour": "blue"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestToObject(t *testing.T) {
	obj, err := toObject("Chunk_3", domain.IndexedVector{
		ID:       "doc_chunk_1",
		Vector:   []float32{0.5, 0.5},
		Text:     "Resource: ServiceNow",
		Metadata: map[string]string{domain.MetaChunkType: "resource", "extra": "kept"},
	}, 7)
	require.NoError(t, err)

	props := obj.Properties.(map[string]any)
	assert.Equal(t, "Chunk_3", obj.Class)
	assert.Equal(t, ObjectID("doc_chunk_1"), obj.ID)
	assert.Equal(t, 7, props[propSeq])
	assert.Equal(t, "resource", props[domain.MetaChunkType])
	assert.NotContains(t, props, "extra")
	assert.JSONEq(t, `{"chunk_type":"resource","extra":"kept"}`, props[propMetadata].(string))
}

func TestParseResults_SortsByDistanceThenSeq(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]any{
			"Chunk_1": []any{
				map[string]any{
					propChunkID: "b", propText: "B", propSeq: float64(2),
					propMetadata:  `{"chunk_type":"main"}`,
					"_additional": map[string]any{"distance": 0.1},
				},
				map[string]any{
					propChunkID: "a", propText: "A", propSeq: float64(1),
					propMetadata:  `{"chunk_type":"main"}`,
					"_additional": map[string]any{"distance": 0.1},
				},
				map[string]any{
					propChunkID: "c", propText: "C", propSeq: float64(0),
					propMetadata:  `{}`,
					"_additional": map[string]any{"distance": 0.4},
				},
			},
		},
	}}

	results, err := parseResults(resp, "Chunk_1")
	require.NoError(t, err)
	sortResults(results)
	out := stripSeq(results)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "main", out[0].Metadata[domain.MetaChunkType])
	assert.InDelta(t, 0.4, out[2].Distance, 1e-9)
}

func TestTopK_TiesAtCut(t *testing.T) {
	mk := func(id string, seq int, dist float64) scored {
		return scored{QueryResult: domain.QueryResult{ID: id, Distance: dist}, seq: seq}
	}
	// Server order puts the later-inserted tie first.
	results := []scored{
		mk("near", 0, 0.05),
		mk("tie-late", 9, 0.2),
		mk("tie-early", 3, 0.2),
		mk("far", 1, 0.7),
	}

	out := topK(results, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "near", out[0].ID)
	assert.Equal(t, "tie-early", out[1].ID)

	assert.Len(t, topK(results[:1], 5), 1)
}

func TestParseCount(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Aggregate": map[string]any{
			"Chunk_4": []any{map[string]any{"meta": map[string]any{"count": float64(12)}}},
		},
	}}
	assert.Equal(t, 12, parseCount(resp, "Chunk_4"))
	assert.Zero(t, parseCount(&models.GraphQLResponse{}, "Chunk_4"))
}

// TestIndex_Live runs against a real server when SYFHACK_WEAVIATE_TEST_HOST is set.
func TestIndex_Live(t *testing.T) {
	host := os.Getenv("SYFHACK_WEAVIATE_TEST_HOST")
	if host == "" {
		t.Skip("SYFHACK_WEAVIATE_TEST_HOST not set")
	}
	ctx := context.Background()

	idx, err := New(ctx, Config{Host: host, ClassPrefix: "SyfhackTest"})
	require.NoError(t, err)
	defer idx.Close()

	entry := func(id, kind string, v ...float32) domain.IndexedVector {
		return domain.IndexedVector{ID: id, Vector: v, Text: id, Metadata: map[string]string{domain.MetaChunkType: kind}}
	}
	require.NoError(t, idx.ReplaceAll(ctx, []domain.IndexedVector{
		entry("x", "main", 0, 1),
		entry("y", "database", 1, 0),
	}))

	results, err := idx.Query(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "y", results[0].ID)

	results, err = idx.Query(ctx, []float32{1, 0}, 5, domain.MetadataFilter{domain.MetaChunkType: "main"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, idx.ReplaceAll(ctx, nil))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
