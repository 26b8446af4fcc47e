package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// Ensure ResourceCatalog implements the interface.
var _ driving.ResourceCatalog = (*ResourceCatalog)(nil)

// summaryDescriptionLimit is the longest description Summary reports verbatim.
const summaryDescriptionLimit = 100

// ResourceCatalog caches the resources listed across the corpus.
// The first call loads the corpus; later calls reuse the result until
// Invalidate or ForceReload.
type ResourceCatalog struct {
	source    driven.CorpusSource
	extractor driven.Extractor

	mu        sync.Mutex
	loaded    bool
	resources []domain.SubEntity
}

// NewResourceCatalog creates a catalog over source.
func NewResourceCatalog(source driven.CorpusSource, extractor driven.Extractor) *ResourceCatalog {
	return &ResourceCatalog{source: source, extractor: extractor}
}

// Resources returns every resource in corpus order.
func (c *ResourceCatalog) Resources(ctx context.Context) ([]domain.SubEntity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.resources, nil
	}
	resources, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.resources = resources
	c.loaded = true
	return resources, nil
}

// Invalidate drops the cached resources.
func (c *ResourceCatalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.resources = nil
}

// ForceReload drops the cache and loads the corpus again.
func (c *ResourceCatalog) ForceReload(ctx context.Context) ([]domain.SubEntity, error) {
	c.Invalidate()
	return c.Resources(ctx)
}

// Summary returns counts by type and a short entry per resource.
func (c *ResourceCatalog) Summary(ctx context.Context) (domain.ResourceSummary, error) {
	resources, err := c.Resources(ctx)
	if err != nil {
		return domain.ResourceSummary{}, err
	}

	summary := domain.ResourceSummary{
		TotalResources: len(resources),
		ByType:         make(map[string]int),
		Resources:      make([]domain.ResourceBrief, 0, len(resources)),
	}
	for _, r := range resources {
		summary.ByType[valueOrEmpty(r.Type, "unknown")]++
		summary.Resources = append(summary.Resources, domain.ResourceBrief{
			Name:        r.Name,
			Type:        r.Type,
			Description: truncate(r.Description, summaryDescriptionLimit),
		})
	}
	return summary, nil
}

func (c *ResourceCatalog) load(ctx context.Context) ([]domain.SubEntity, error) {
	logger.Debug("Loading resource catalog from %s", c.source.Root())

	raws, err := c.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	resources := []domain.SubEntity{}
	for i := range raws {
		doc, err := c.extractor.Extract(ctx, &raws[i])
		if err != nil {
			logger.Warn("Skipping %s: %v", raws[i].URI, err)
			continue
		}
		resources = append(resources, doc.EntitiesOf(domain.EntityResource)...)
	}
	logger.Info("Loaded %d resource(s) from %d document(s)", len(resources), len(raws))
	return resources, nil
}

// truncate shortens s to limit runes followed by "..." when longer.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func valueOrEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
