// Package spatial provides an immutable KD-tree index over 3D positions.
package spatial

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyIndex is returned when building from, or querying, an index with no points.
var ErrEmptyIndex = errors.New("spatial index is empty")

// Index answers nearest and bounded-range queries over a fixed point set.
// It is immutable after construction and safe for concurrent queries.
type Index struct {
	tree   *kdtree.Tree
	points []r3.Vec
}

// New builds an index over points. Result indices refer to positions in
// points. The slice is copied; later changes to it are not observed.
func New(points []r3.Vec) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyIndex
	}

	own := make([]r3.Vec, len(points))
	copy(own, points)

	// kdtree.New partitions in place, so it gets its own entries.
	list := make(entries, len(own))
	for i, p := range own {
		list[i] = newEntry(i, p)
	}

	return &Index{
		tree:   kdtree.New(list, false),
		points: own,
	}, nil
}

// Len returns the number of indexed points.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.points)
}

// Point returns the i-th indexed position.
func (x *Index) Point(i int) r3.Vec {
	return x.points[i]
}

// Nearest returns the index of the point closest to q and its distance.
// Among equidistant points the lowest index wins.
func (x *Index) Nearest(q r3.Vec) (int, float64, error) {
	if x.Len() == 0 || x.tree == nil {
		return -1, 0, ErrEmptyIndex
	}

	k := newBoundedKeeper(math.Inf(1), 1)
	x.tree.NearestSet(k, newEntry(-1, q))
	for _, c := range k.Heap {
		if c.Comparable == nil {
			continue
		}
		idx := c.Comparable.(entry).idx
		return idx, r3.Norm(r3.Sub(x.points[idx], q)), nil
	}
	return -1, 0, ErrEmptyIndex
}

// LocateNear returns up to maxCount points within maxRange of q, sorted by
// ascending distance with ties broken by ascending index. maxRange <= 0 means
// no range bound and maxCount < 0 means no count bound. When nothing
// qualifies both slices are empty and the error is nil.
func (x *Index) LocateNear(q r3.Vec, maxRange float64, maxCount int) ([]int, []float64, error) {
	if x.Len() == 0 || x.tree == nil {
		return nil, nil, ErrEmptyIndex
	}
	if maxCount == 0 {
		return []int{}, []float64{}, nil
	}

	limit := math.Inf(1)
	if maxRange > 0 {
		limit = maxRange * maxRange
	}

	k := newBoundedKeeper(limit, maxCount)
	x.tree.NearestSet(k, newEntry(-1, q))

	type hit struct {
		idx  int
		dist float64
	}
	hits := make([]hit, 0, k.Len())
	for _, c := range k.Heap {
		if c.Comparable == nil {
			continue
		}
		idx := c.Comparable.(entry).idx
		d := r3.Norm(r3.Sub(x.points[idx], q))
		// Squared-distance filtering can admit a point one ulp past the range.
		if maxRange > 0 && d > maxRange {
			continue
		}
		hits = append(hits, hit{idx: idx, dist: d})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist == hits[j].dist {
			return hits[i].idx < hits[j].idx
		}
		return hits[i].dist < hits[j].dist
	})
	if maxCount > 0 && len(hits) > maxCount {
		hits = hits[:maxCount]
	}

	indices := make([]int, len(hits))
	dists := make([]float64, len(hits))
	for i, h := range hits {
		indices[i] = h.idx
		dists[i] = h.dist
	}
	return indices, dists, nil
}

// entry is an indexed position tagged with its slot in the source list.
type entry struct {
	idx int
	pos [3]float64
}

func newEntry(idx int, p r3.Vec) entry {
	return entry{idx: idx, pos: [3]float64{p.X, p.Y, p.Z}}
}

// Compare returns the signed distance of e from c along dimension d.
func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(entry)
	return e.pos[d] - q.pos[d]
}

// Dims returns the number of dimensions.
func (e entry) Dims() int { return len(e.pos) }

// Distance returns the squared Euclidean distance; the tree prunes against
// squared plane offsets.
func (e entry) Distance(c kdtree.Comparable) float64 {
	q := c.(entry)
	var sum float64
	for i := range e.pos {
		d := e.pos[i] - q.pos[i]
		sum += d * d
	}
	return sum
}

// entries implements kdtree.Interface.
type entries []entry

func (p entries) Index(i int) kdtree.Comparable         { return p[i] }
func (p entries) Len() int                              { return len(p) }
func (p entries) Pivot(d kdtree.Dim) int                { return plane{entries: p, dim: d}.Pivot() }
func (p entries) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts entries along a single dimension for median partitioning.
type plane struct {
	entries
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	a, b := p.entries[i], p.entries[j]
	if a.pos[p.dim] == b.pos[p.dim] {
		return a.idx < b.idx
	}
	return a.pos[p.dim] < b.pos[p.dim]
}

func (p plane) Swap(i, j int) {
	p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{entries: p.entries[start:end], dim: p.dim}
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
