package spatial

import (
	"container/heap"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// boundedKeeper retains at most n results whose squared distance does not
// exceed a limit. It combines the behavior of kdtree.NKeeper and
// kdtree.DistKeeper. A negative n keeps every result inside the limit.
//
// Results are ranked by (distance, index), so among equidistant points the
// lowest indices are kept whatever order the tree visits them in.
//
// Like the gonum keepers it seeds the heap with a sentinel carrying the limit
// so that Max reports the pruning bound before any point is kept.
type boundedKeeper struct {
	kdtree.Heap
	n        int
	sentinel bool
}

func newBoundedKeeper(limit float64, n int) *boundedKeeper {
	return &boundedKeeper{
		Heap:     kdtree.Heap{{Dist: limit}},
		n:        n,
		sentinel: true,
	}
}

// Less orders the heap worst first: the sentinel, then larger distances,
// then larger indices.
func (k *boundedKeeper) Less(i, j int) bool {
	return worse(k.Heap[i], k.Heap[j])
}

// Keep adds c if it is within the current bound. When the keeper is full, c
// replaces the worst kept result only if it ranks strictly better.
func (k *boundedKeeper) Keep(c kdtree.ComparableDist) {
	if c.Dist > k.Heap[0].Dist {
		return
	}
	if k.n >= 0 && k.kept() >= k.n {
		if k.sentinel {
			heap.Pop(k)
			k.sentinel = false
		}
		if !worse(k.Heap[0], c) {
			return
		}
		heap.Pop(k)
	}
	heap.Push(k, c)
}

// kept returns the number of real results held.
func (k *boundedKeeper) kept() int {
	n := len(k.Heap)
	if k.sentinel {
		n--
	}
	return n
}

// worse reports whether a ranks after b. The sentinel ranks after everything.
func worse(a, b kdtree.ComparableDist) bool {
	switch {
	case a.Comparable == nil:
		return b.Comparable != nil
	case b.Comparable == nil:
		return false
	case a.Dist != b.Dist:
		return a.Dist > b.Dist
	}
	return a.Comparable.(entry).idx > b.Comparable.(entry).idx
}
