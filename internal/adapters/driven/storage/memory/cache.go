package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure ContextCache implements the interface.
var _ driven.ContextCache = (*ContextCache)(nil)

// ContextCache is an in-memory implementation of driven.ContextCache.
type ContextCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewContextCache creates an empty cache.
func NewContextCache() *ContextCache {
	return &ContextCache{entries: make(map[string][]byte)}
}

// Get returns the value stored under key.
func (c *ContextCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

// Set stores value under key.
func (c *ContextCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = slices.Clone(value)
	return nil
}

// Invalidate drops every entry.
func (c *ContextCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

// Close is a no-op.
func (c *ContextCache) Close() error {
	return nil
}
