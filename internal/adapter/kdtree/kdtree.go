// Package kdtree implements the spatial index as an exact k-d tree over
// fixed-dimension vectors.
//
// Construction and k-nearest search are delegated to gonum's kdtree. That
// tree has no removal, so the index keeps its own point list and rebuilds
// a balanced tree after removals, and once incremental inserts outnumber
// the points of the last balanced build.
package kdtree

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"vecdb/internal/domain"
)

// Index is a k-d tree keyed on vectors of a fixed dimension. It is not
// safe for concurrent use.
type Index struct {
	dim    int
	points []*point
	tree   *kdtree.Tree
	seq    uint64

	builtSize int
	inserted  int
}

// New creates an empty index for vectors of length dim.
func New(dim int) *Index {
	return &Index{dim: dim}
}

func (x *Index) Dimension() int {
	return x.dim
}

// Add inserts vector with id as payload. The same id may be added any
// number of times.
func (x *Index) Add(vector []float32, id domain.ID) error {
	if len(vector) != x.dim {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimension, x.dim, len(vector))
	}

	p := &point{coords: widen(vector), id: id, seq: x.seq}
	x.seq++
	x.points = append(x.points, p)

	if x.tree == nil || x.inserted >= x.builtSize {
		x.rebuild()
		return nil
	}
	x.tree.Insert(p, false)
	x.inserted++
	return nil
}

// Remove deletes every point whose coordinates equal vector exactly and
// whose payload is id. It reports how many points were removed.
func (x *Index) Remove(vector []float32, id domain.ID) (int, error) {
	if len(vector) != x.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimension, x.dim, len(vector))
	}

	target := widen(vector)
	kept := x.points[:0]
	removed := 0
	for _, p := range x.points {
		if p.id == id && p.coords.equal(target) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(x.points); i++ {
		x.points[i] = nil
	}
	x.points = kept

	if removed > 0 {
		x.rebuild()
	}
	return removed, nil
}

// NearestN returns up to k points closest to vector by squared Euclidean
// distance, nearest first. Equal distances keep insertion order.
func (x *Index) NearestN(vector []float32, k int) ([]domain.Neighbor, error) {
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimension, x.dim, len(vector))
	}
	if k <= 0 || len(x.points) == 0 {
		return []domain.Neighbor{}, nil
	}
	if k > len(x.points) {
		k = len(x.points)
	}

	q := &point{coords: widen(vector)}
	nearest := kdtree.NewNKeeper(k)
	x.tree.NearestSet(nearest, q)
	found := collect(nearest.Heap)

	// Which of several points tied at the k-th distance NKeeper retains
	// depends on traversal order. Gather every point within that distance
	// so the tie break below sees all of them.
	if len(found) == k {
		radius := 0.0
		for _, cd := range found {
			radius = max(radius, cd.Dist)
		}
		within := kdtree.NewDistKeeper(radius)
		x.tree.NearestSet(within, q)
		found = collect(within.Heap)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Dist != found[j].Dist {
			return found[i].Dist < found[j].Dist
		}
		return found[i].Comparable.(*point).seq < found[j].Comparable.(*point).seq
	})
	if len(found) > k {
		found = found[:k]
	}

	neighbors := make([]domain.Neighbor, len(found))
	for i, cd := range found {
		neighbors[i] = domain.Neighbor{ID: cd.Comparable.(*point).id, Distance: cd.Dist}
	}
	return neighbors, nil
}

// RemoveLatest deletes the most recently added point whose coordinates
// equal vector and whose payload is id. Earlier duplicates keep their
// insertion order.
func (x *Index) RemoveLatest(vector []float32, id domain.ID) (bool, error) {
	if len(vector) != x.dim {
		return false, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimension, x.dim, len(vector))
	}

	target := widen(vector)
	for i := len(x.points) - 1; i >= 0; i-- {
		p := x.points[i]
		if p.id != id || !p.coords.equal(target) {
			continue
		}
		copy(x.points[i:], x.points[i+1:])
		x.points[len(x.points)-1] = nil
		x.points = x.points[:len(x.points)-1]
		x.rebuild()
		return true, nil
	}
	return false, nil
}

// Len returns the number of points, counting duplicates.
func (x *Index) Len() int {
	return len(x.points)
}

// Reset drops every point.
func (x *Index) Reset() {
	x.points = nil
	x.tree = nil
	x.builtSize = 0
	x.inserted = 0
}

// rebuild constructs a balanced tree from the current point list.
func (x *Index) rebuild() {
	x.inserted = 0
	x.builtSize = len(x.points)
	if len(x.points) == 0 {
		x.tree = nil
		return
	}
	// kdtree.New partitions its input in place.
	cp := make(points, len(x.points))
	copy(cp, x.points)
	x.tree = kdtree.New(cp, false)
}

// collect drops the sentinel keepers seed their heaps with.
func collect(h kdtree.Heap) []kdtree.ComparableDist {
	out := make([]kdtree.ComparableDist, 0, len(h))
	for _, cd := range h {
		if cd.Comparable == nil {
			continue
		}
		out = append(out, cd)
	}
	return out
}

func widen(v []float32) coords {
	out := make(coords, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
