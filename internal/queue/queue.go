// Package queue provides the bounded candidate heap used to keep the k
// nearest master nodes of a slave node.
package queue

import (
	"slices"

	"github.com/hupe1980/geomsearch/mesh"
)

// Item is a candidate node and its distance to the query point.
type Item struct {
	Node     mesh.NodeID
	Distance float64
}

// Less orders items by distance, then by node id. The id tie-break makes
// every selection reproducible regardless of insertion order.
func Less(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node < b.Node
}

// TopK keeps the k smallest items offered so far.
// Internally it is a max-heap so the current worst item sits at the root.
type TopK struct {
	k     int
	items []Item
}

// preallocItems bounds the up-front allocation; larger heaps grow on demand.
const preallocItems = 64

// NewTopK creates a TopK holding at most k items.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]Item, 0, max(0, min(k, preallocItems))),
	}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// Worst returns the largest retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Offer considers an item and reports whether it was retained.
func (q *TopK) Offer(it Item) bool {
	if q.k <= 0 {
		return false
	}
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !Less(it, q.items[0]) {
		return false
	}
	q.items[0] = it
	q.siftDown(0)
	return true
}

// Sorted returns the retained items in ascending order.
// The queue itself is left untouched.
func (q *TopK) Sorted() []Item {
	out := slices.Clone(q.items)
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Reset clears the queue for reuse.
func (q *TopK) Reset() {
	q.items = q.items[:0]
}

// above reports whether item i belongs closer to the root than item j.
func (q *TopK) above(i, j int) bool {
	return Less(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.above(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && q.above(r, l) {
			best = r
		}
		if !q.above(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
