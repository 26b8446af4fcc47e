package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/extractors/html"
)

func TestResourceCatalog_Resources(t *testing.T) {
	source := &staticSource{docs: corpusDocs()}
	catalog := NewResourceCatalog(source, html.New())
	ctx := context.Background()

	resources, err := catalog.Resources(ctx)
	require.NoError(t, err)

	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Fiserv Payment API", "Fraud Monitor", "ServiceNow REST API"}, names)

	_, err = catalog.Resources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.lists, "second call is served from the cache")

	catalog.Invalidate()
	_, err = catalog.Resources(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.lists)

	_, err = catalog.ForceReload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, source.lists)
}

func TestResourceCatalog_SkipsBadDocuments(t *testing.T) {
	docs := append(corpusDocs(), domain.RawDocument{SourceID: "broken.html", URI: "/corpus/broken.html"})
	catalog := NewResourceCatalog(&staticSource{docs: docs}, html.New())

	resources, err := catalog.Resources(context.Background())
	require.NoError(t, err)
	assert.Len(t, resources, 3)
}

func TestResourceCatalog_ListError(t *testing.T) {
	source := &staticSource{listErr: errors.New("permission denied")}
	catalog := NewResourceCatalog(source, html.New())

	_, err := catalog.Resources(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	source.listErr = nil
	source.docs = corpusDocs()
	resources, err := catalog.Resources(context.Background())
	require.NoError(t, err)
	assert.Len(t, resources, 3, "failed loads are not cached")
}

func TestResourceCatalog_EmptyCorpus(t *testing.T) {
	catalog := NewResourceCatalog(&staticSource{}, html.New())

	summary, err := catalog.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalResources)
	assert.NotNil(t, summary.ByType)
	assert.NotNil(t, summary.Resources)
}

func TestResourceCatalog_Summary(t *testing.T) {
	catalog := NewResourceCatalog(&staticSource{docs: corpusDocs()}, html.New())

	summary, err := catalog.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalResources)
	assert.Equal(t, map[string]int{"API": 2, "Service": 1}, summary.ByType)
	require.Len(t, summary.Resources, 3)
	assert.Equal(t, domain.ResourceBrief{
		Name:        "Fiserv Payment API",
		Type:        "API",
		Description: "Card authorisation and settlement",
	}, summary.Resources[0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))

	long := strings.Repeat("é", 150)
	got := truncate(long, summaryDescriptionLimit)
	assert.Equal(t, strings.Repeat("é", 100)+"...", got)
}

func TestValueOrEmpty(t *testing.T) {
	assert.Equal(t, "unknown", valueOrEmpty("", "unknown"))
	assert.Equal(t, "API", valueOrEmpty("API", "unknown"))
}
