package driving

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// RetrievalService indexes a corpus and answers retrieval queries.
type RetrievalService interface {
	// IndexCorpus extracts, chunks and embeds docs, then replaces the whole
	// index in one step. Documents that fail extraction are skipped.
	IndexCorpus(ctx context.Context, docs []domain.RawDocument) (domain.IndexResult, error)

	// Search returns up to k chunks nearest to query.
	Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.QueryResult, error)

	// SearchByResourceType finds resource chunks for a resource type.
	SearchByResourceType(ctx context.Context, resourceType string, k int) ([]domain.QueryResult, error)

	// SearchByLanguage finds chunks related to a programming language.
	SearchByLanguage(ctx context.Context, language string, k int) ([]domain.QueryResult, error)

	// SearchDatabases finds database chunks for query.
	SearchDatabases(ctx context.Context, query string, k int) ([]domain.QueryResult, error)

	// GatherContext collects deduplicated resources and databases relevant
	// to an automation request.
	GatherContext(ctx context.Context, description string, toolNames []string) (domain.AutomationContext, error)

	// Stats reports what is currently indexed.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
