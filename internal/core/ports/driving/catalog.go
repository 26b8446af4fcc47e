package driving

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// ResourceCatalog exposes the resources listed across the corpus.
// The catalog loads once and serves the cached copy until invalidated.
type ResourceCatalog interface {
	// Resources returns every resource sub-entity in corpus order.
	Resources(ctx context.Context) ([]domain.SubEntity, error)

	// Summary returns counts by type and a short entry per resource.
	Summary(ctx context.Context) (domain.ResourceSummary, error)

	// Invalidate drops the cached resources.
	Invalidate()

	// ForceReload drops the cache and loads the corpus again.
	ForceReload(ctx context.Context) ([]domain.SubEntity, error)
}
