package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Writers build a new snapshot and swap it in, so a reader always sees
// either the old or the new contents in full.
type VectorIndex struct {
	mu       sync.RWMutex
	snapshot []domain.IndexedVector
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// ReplaceAll atomically swaps the index contents for entries.
func (v *VectorIndex) ReplaceAll(_ context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}
	next := make([]domain.IndexedVector, len(entries))
	for i, e := range entries {
		next[i] = clone(e)
	}

	v.mu.Lock()
	v.snapshot = next
	v.mu.Unlock()
	return nil
}

// Upsert inserts or overwrites entries by id. New ids are appended in order.
func (v *VectorIndex) Upsert(_ context.Context, entries []domain.IndexedVector) error {
	if err := domain.ValidateVectors(entries); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := slices.Clone(v.snapshot)
	pos := make(map[string]int, len(next))
	for i, e := range next {
		pos[e.ID] = i
	}
	for _, e := range entries {
		if i, ok := pos[e.ID]; ok {
			next[i] = clone(e)
			continue
		}
		pos[e.ID] = len(next)
		next = append(next, clone(e))
	}
	if err := domain.ValidateVectors(next); err != nil {
		return err
	}
	v.snapshot = next
	return nil
}

// Query returns up to k entries nearest to vector.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, k int, filter domain.MetadataFilter) ([]domain.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	snapshot := v.snapshot
	v.mu.RUnlock()

	return domain.NearestNeighbours(snapshot, vector, k, filter)
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.snapshot), nil
}

// Sample returns up to limit entries in insertion order.
func (v *VectorIndex) Sample(_ context.Context, limit int) ([]domain.QueryResult, error) {
	v.mu.RLock()
	snapshot := v.snapshot
	v.mu.RUnlock()

	n := min(max(limit, 0), len(snapshot))
	out := make([]domain.QueryResult, n)
	for i := range n {
		e := snapshot[i]
		out[i] = domain.QueryResult{ID: e.ID, Text: e.Text, Metadata: cloneMap(e.Metadata)}
	}
	return out, nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

func clone(e domain.IndexedVector) domain.IndexedVector {
	return domain.IndexedVector{
		ID:       e.ID,
		Vector:   slices.Clone(e.Vector),
		Metadata: cloneMap(e.Metadata),
		Text:     e.Text,
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = val
	}
	return out
}
