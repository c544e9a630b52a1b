// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package visual

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/fitline/internal/models"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNotNormalized is returned when adding a vector without unit norm.
	ErrNotNormalized = errors.New("vector is not L2-normalized")
)

// Match is one search result.
type Match struct {
	ItemID   string
	Score    float64
	Metadata models.ItemMetadata
}

// Index is an append-only exact inner-product index. Duplicate item IDs
// are kept as separate entries.
type Index struct {
	mu    sync.RWMutex
	dim   int
	data  []float32 // len(ids) * dim, row-major
	ids   []string
	metas []models.ItemMetadata
	rows  map[string]itemRows
}

// itemRows locates the entries stored under one item ID.
type itemRows struct {
	first int
	count int
}

// NewIndex returns an empty index for vectors of length dim.
func NewIndex(dim int) *Index {
	return &Index{dim: dim, rows: make(map[string]itemRows)}
}

// Dimension returns the vector length.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Len returns the number of entries, counting duplicates.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// AddItems appends vectors with their IDs. metas may be nil; otherwise it
// must be as long as ids. The whole call is rejected if any vector is
// invalid.
func (ix *Index) AddItems(vectors []Vector, ids []string, metas []models.ItemMetadata) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("add items: %d vectors for %d ids", len(vectors), len(ids))
	}
	if metas != nil && len(metas) != len(ids) {
		return fmt.Errorf("add items: %d metadata entries for %d ids", len(metas), len(ids))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: item %s has %d, index has %d", ErrDimensionMismatch, ids[i], len(v), ix.dim)
		}
		if !v.IsUnit() {
			return fmt.Errorf("%w: item %s has norm %.6f", ErrNotNormalized, ids[i], v.Norm())
		}
	}

	for i, v := range vectors {
		row := len(ix.ids)
		ix.data = append(ix.data, v...)
		ix.ids = append(ix.ids, ids[i])
		var meta models.ItemMetadata
		if metas != nil {
			meta = metas[i]
		}
		ix.metas = append(ix.metas, meta)
		r, ok := ix.rows[ids[i]]
		if !ok {
			r.first = row
		}
		r.count++
		ix.rows[ids[i]] = r
	}
	return nil
}

// Vector returns a copy of the first stored vector for itemID.
func (ix *Index) Vector(itemID string) (Vector, bool) {
	v, _, ok := ix.lookup(itemID)
	return v, ok
}

// lookup returns the first vector for itemID and how many entries share
// the ID.
func (ix *Index) lookup(itemID string) (Vector, int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	r, ok := ix.rows[itemID]
	if !ok {
		return nil, 0, false
	}
	v := make(Vector, ix.dim)
	copy(v, ix.data[r.first*ix.dim:(r.first+1)*ix.dim])
	return v, r.count, true
}

// Search returns up to k entries by descending inner product with q.
// Equal scores keep insertion order. An empty index yields no results.
func (ix *Index) Search(q Vector, k int) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(q) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), ix.dim)
	}
	n := len(ix.ids)
	if k <= 0 || n == 0 {
		return nil, nil
	}
	k = min(k, n)

	h := make(topK, 0, k)
	for row := 0; row < n; row++ {
		c := candidate{score: Dot(q, ix.data[row*ix.dim:(row+1)*ix.dim]), row: row}
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if h[0].worseThan(c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	sort.Slice(h, func(i, j int) bool { return h[j].worseThan(h[i]) })
	out := make([]Match, len(h))
	for i, c := range h {
		out[i] = Match{ItemID: ix.ids[c.row], Score: c.score, Metadata: ix.metas[c.row]}
	}
	return out, nil
}

type candidate struct {
	score float64
	row   int
}

// worseThan orders by score, then prefers the earlier row.
func (c candidate) worseThan(o candidate) bool {
	if c.score != o.score {
		return c.score < o.score
	}
	return c.row > o.row
}

// topK is a min-heap whose root is the worst kept candidate.
type topK []candidate

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return h[i].worseThan(h[j]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *topK) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *topK) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}
