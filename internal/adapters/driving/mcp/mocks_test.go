package mcp

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results    []domain.QueryResult
	context    domain.AutomationContext
	stats      domain.IndexStats
	err        error
	lastQuery  string
	lastK      int
	lastFilter domain.MetadataFilter
	lastTools  []string
}

var _ driving.RetrievalService = (*mockRetrievalService)(nil)

func (m *mockRetrievalService) IndexCorpus(context.Context, []domain.RawDocument) (domain.IndexResult, error) {
	return domain.IndexResult{}, m.err
}

func (m *mockRetrievalService) Search(
	_ context.Context, query string, k int, filter domain.MetadataFilter,
) ([]domain.QueryResult, error) {
	m.lastQuery, m.lastK, m.lastFilter = query, k, filter
	return m.results, m.err
}

func (m *mockRetrievalService) SearchByResourceType(context.Context, string, int) ([]domain.QueryResult, error) {
	return m.results, m.err
}

func (m *mockRetrievalService) SearchByLanguage(context.Context, string, int) ([]domain.QueryResult, error) {
	return m.results, m.err
}

func (m *mockRetrievalService) SearchDatabases(context.Context, string, int) ([]domain.QueryResult, error) {
	return m.results, m.err
}

func (m *mockRetrievalService) GatherContext(
	_ context.Context, description string, tools []string,
) (domain.AutomationContext, error) {
	m.lastQuery, m.lastTools = description, tools
	return m.context, m.err
}

func (m *mockRetrievalService) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

// mockCatalog is a mock implementation of driving.ResourceCatalog.
type mockCatalog struct {
	summary   domain.ResourceSummary
	resources []domain.SubEntity
	err       error
}

var _ driving.ResourceCatalog = (*mockCatalog)(nil)

func (m *mockCatalog) Resources(context.Context) ([]domain.SubEntity, error) {
	return m.resources, m.err
}

func (m *mockCatalog) Summary(context.Context) (domain.ResourceSummary, error) {
	return m.summary, m.err
}

func (m *mockCatalog) Invalidate() {}

func (m *mockCatalog) ForceReload(context.Context) ([]domain.SubEntity, error) { return nil, m.err }
