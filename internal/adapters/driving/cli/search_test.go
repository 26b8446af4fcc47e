package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

func TestSearchCmd_Flags(t *testing.T) {
	limit := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "n", limit.Shorthand)
	assert.Equal(t, "5", limit.DefValue)
	assert.NotNil(t, searchCmd.Flags().Lookup("kind"))
	assert.NotNil(t, searchCmd.Flags().Lookup("json"))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	assert.Error(t, err)
}

func TestSearchCmd_EmptyCorpus(t *testing.T) {
	stack := setupTestServices(t)
	stack.emptyCorpus(t)

	out, err := execute(t, "search", "payments")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_IndexesEmptyIndexOnDemand(t *testing.T) {
	stack := setupTestServices(t)

	out, err := execute(t, "search", "ServiceNow incidents")

	require.NoError(t, err)
	assert.Contains(t, out, "Results (")
	stats, err := stack.services.Retrieval.Stats(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalChunks)
}

func TestSearchCmd_Table(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, "index")
	require.NoError(t, err)

	out, err := execute(t, "search", "Fiserv Payment API card authorisation", "-n", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "Results (")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "[3]")
	assert.NotContains(t, out, "[4]")
	assert.Contains(t, out, "Resource: Fiserv Payment API")
}

func TestSearchCmd_JSONWithKind(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, "index")
	require.NoError(t, err)

	out, err := execute(t, "search", "transactions", "--kind", "database", "--json")

	require.NoError(t, err)
	var results []domain.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, domain.ChunkDatabase, results[0].Kind())
	assert.Equal(t, "Transactions DB", results[0].Metadata[domain.MetaDatabaseName])
}

func TestSearchCmd_EmptyJSON(t *testing.T) {
	stack := setupTestServices(t)
	stack.emptyCorpus(t)

	out, err := execute(t, "search", "anything", "--json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestSearchCmd_InvalidKind(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "x", "--kind", "table")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_MaxDistance(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "transactions", "--max-distance", "0.0001", "--json")

	require.NoError(t, err)
	var results []domain.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	for _, r := range results {
		assert.LessOrEqual(t, r.Distance, 0.0001)
	}
}

func TestWithinDistance(t *testing.T) {
	results := []domain.QueryResult{{ID: "a", Distance: 0.1}, {ID: "b", Distance: 0.5}}

	assert.Len(t, withinDistance(results, 0), 2)
	assert.Len(t, withinDistance(results, 0.3), 1)
	assert.NotNil(t, withinDistance(nil, 0))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("  short  ", 10))
	assert.Equal(t, "first", snippet("first\nsecond", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
	assert.Equal(t, "héé...", snippet("héééé", 3))
}
