package domain

import (
	"fmt"
	"math"
	"sort"
)

// CosineDistance returns 1 - cos(a, b). A zero vector is at distance 1
// from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// ValidateVectors checks a batch bound for the index: ids must be non-empty
// and unique, and every vector must have the same length.
func ValidateVectors(entries []IndexedVector) error {
	seen := make(map[string]struct{}, len(entries))
	dims := -1
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry %d has an empty id", ErrInvalidInput, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidInput, e.ID)
		}
		seen[e.ID] = struct{}{}
		if dims == -1 {
			dims = len(e.Vector)
		} else if len(e.Vector) != dims {
			return fmt.Errorf("%w: id %q has %d dimensions, want %d", ErrInvalidInput, e.ID, len(e.Vector), dims)
		}
	}
	return nil
}

// NearestNeighbours ranks entries by cosine distance to query and returns at
// most k results. Entries not matching filter are excluded before ranking.
// Ties keep the order of entries. Non-positive k yields no results.
func NearestNeighbours(entries []IndexedVector, query []float32, k int, filter MetadataFilter) ([]QueryResult, error) {
	results := []QueryResult{}
	if k <= 0 {
		return results, nil
	}
	for _, e := range entries {
		if !filter.Matches(e.Metadata) {
			continue
		}
		if len(e.Vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrInvalidInput, len(query), len(e.Vector))
		}
		results = append(results, QueryResult{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: copyMetadata(e.Metadata),
			Distance: CosineDistance(query, e.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
