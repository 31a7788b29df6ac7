package kdtree

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"vecdb/internal/domain"
)

type coords kdtree.Point

func (c coords) equal(o coords) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// point is a tree node payload. seq records insertion order.
type point struct {
	coords coords
	id     domain.ID
	seq    uint64
}

var _ kdtree.Comparable = (*point)(nil)

func (p *point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coords[d] - c.(*point).coords[d]
}

func (p *point) Dims() int {
	return len(p.coords)
}

// Distance is the squared Euclidean distance.
func (p *point) Distance(c kdtree.Comparable) float64 {
	q := c.(*point)
	var sum float64
	for i, v := range p.coords {
		d := v - q.coords[i]
		sum += d * d
	}
	return sum
}

type points []*point

var _ kdtree.Interface = points(nil)

func (p points) Index(i int) kdtree.Comparable { return p[i] }
func (p points) Len() int                      { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p points) Pivot(d kdtree.Dim) int {
	pl := plane{points: p, dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane orders points along one dimension for pivot selection.
type plane struct {
	points points
	dim    kdtree.Dim
}

var _ kdtree.SortSlicer = plane{}

func (p plane) Len() int { return len(p.points) }
func (p plane) Less(i, j int) bool {
	return p.points[i].coords[p.dim] < p.points[j].coords[p.dim]
}
func (p plane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
