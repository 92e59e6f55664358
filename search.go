package mtree

import "math"

// pendingRecord is a not-yet-expanded node, keyed by the tightest known
// lower bound on the distance from the query to anything in its
// subtree.
type pendingRecord[T comparable] struct {
	node            *Node[T]
	distanceToQuery float64
}

// nearestRecord is an entry known to be relevant, keyed by its exact
// distance to the query, waiting for it to be safe to yield.
type nearestRecord[T comparable] struct {
	data     T
	distance float64
}

// Unbounded is the default Range for Search: no object is ever excluded
// on distance.
var Unbounded = math.Inf(1)

// NoLimit is the default Limit for Search: no cap on the number of
// results.
const NoLimit = -1

// Cursor is the lazy, single-pass, pull-style result sequence Search
// returns. Calling Next repeatedly yields (data, distance) pairs in
// non-decreasing distance order until it runs out, mirroring the
// reference implementation's generator (spec §4.4) without requiring a
// goroutine: each call advances the two-heap state machine by exactly as
// much work as is needed to produce (or rule out) one more result.
//
// A Cursor borrows the tree read-only. Mutating the tree while a Cursor
// is still live invalidates it (spec §5); this is not detected.
type Cursor[T comparable] struct {
	tree    *Tree[T]
	query   T
	rng     float64
	limit   int
	yielded int

	pending *pqueue[pendingRecord[T]]
	nearest *pqueue[nearestRecord[T]]
}

// Search returns a Cursor over the indexed data within distance rng of
// query, in non-decreasing distance order, truncated to at most limit
// results. Pass Unbounded and NoLimit for an unrestricted nearest-
// neighbor ordering of the whole index.
func (t *Tree[T]) Search(query T, rng float64, limit int) *Cursor[T] {
	c := &Cursor[T]{
		tree:    t,
		query:   query,
		rng:     rng,
		limit:   limit,
		pending: newPqueue[pendingRecord[T]](),
		nearest: newPqueue[nearestRecord[T]](),
	}
	if t.root == nil {
		return c
	}
	distance := t.distanceFunc(query, t.root.data)
	minDistance := math.Max(0, distance-t.root.radius)
	if minDistance <= rng {
		c.pending.push(pendingRecord[T]{node: t.root, distanceToQuery: distance}, minDistance)
	}
	return c
}

// Next returns the next (data, distance) pair in non-decreasing
// distance order, or ok=false once the cursor is exhausted (the range
// and limit are satisfied, or the whole index has been scanned).
func (c *Cursor[T]) Next() (data T, distance float64, ok bool) {
	if c.limit != NoLimit && c.yielded >= c.limit {
		return data, 0, false
	}
	for {
		bound := math.Inf(1)
		if !c.pending.empty() {
			_, bound = c.pending.peek()
		}
		if !c.nearest.empty() {
			if _, key := c.nearest.peek(); key <= bound {
				popped, dist := c.nearest.pop()
				c.yielded++
				return popped.data, dist, true
			}
		}
		if c.pending.empty() {
			return data, 0, false
		}

		top, _ := c.pending.pop()
		c.expand(top.node, top.distanceToQuery)
	}
}

// expand applies the two-step filter of spec §4.4 to every child of n,
// given the already-known distance from the query to n's pivot, pushing
// relevant entries onto nearest and relevant subnodes onto pending.
func (c *Cursor[T]) expand(n *Node[T], parentDistance float64) {
	if n.kind.isLeaf() {
		for _, e := range n.entries {
			if !c.fastFilter(parentDistance, e.distanceToParent, 0) {
				continue
			}
			c.considerEntry(e.data)
		}
		return
	}
	for _, child := range n.children {
		if !c.fastFilter(parentDistance, child.distanceToParent, child.radius) {
			continue
		}
		c.considerNode(child)
	}
}

func (c *Cursor[T]) fastFilter(parentDistance, distanceToParent, radius float64) bool {
	return math.Abs(parentDistance-distanceToParent)-radius <= c.rng
}

func (c *Cursor[T]) considerEntry(data T) {
	distance := c.tree.distanceFunc(c.query, data)
	minDistance := math.Max(0, distance-0)
	if minDistance <= c.rng {
		c.nearest.push(nearestRecord[T]{data: data, distance: distance}, distance)
	}
}

func (c *Cursor[T]) considerNode(n *Node[T]) {
	distance := c.tree.distanceFunc(c.query, n.data)
	minDistance := math.Max(0, distance-n.radius)
	if minDistance <= c.rng {
		c.pending.push(pendingRecord[T]{node: n, distanceToQuery: distance}, minDistance)
	}
}
