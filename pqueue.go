package mtree

import "container/heap"

// item pairs a queued value with the key it was pushed under, so the
// queue doesn't need to re-derive the projection (which might itself be
// a distance computation the caller would rather not repeat).
type item[T any] struct {
	val T
	key float64
}

// rawHeap adapts a slice of items to container/heap, the same way
// rStarTree.go adapts a slice of entries to sort.Interface via byLat,
// byLong and byDist: a tiny wrapper type exists solely to carry the
// methods the stdlib algorithm needs.
type rawHeap[T any] []item[T]

func (h rawHeap[T]) Len() int            { return len(h) }
func (h rawHeap[T]) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h rawHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rawHeap[T]) Push(x interface{}) { *h = append(*h, x.(item[T])) }
func (h *rawHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	popped := old[n-1]
	*h = old[:n-1]
	return popped
}

// pqueue is a min-heap keyed by a caller-chosen real-valued projection,
// per spec §4.5: push, pop, peek and an emptiness check, nothing more.
// Ties are broken however container/heap happens to break them.
type pqueue[T any] struct {
	h rawHeap[T]
}

func newPqueue[T any]() *pqueue[T] {
	return &pqueue[T]{}
}

func (q *pqueue[T]) push(val T, key float64) {
	heap.Push(&q.h, item[T]{val: val, key: key})
}

func (q *pqueue[T]) pop() (T, float64) {
	popped := heap.Pop(&q.h).(item[T])
	return popped.val, popped.key
}

func (q *pqueue[T]) peek() (T, float64) {
	return q.h[0].val, q.h[0].key
}

func (q *pqueue[T]) empty() bool {
	return len(q.h) == 0
}
