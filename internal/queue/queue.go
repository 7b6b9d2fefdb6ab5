// Package queue provides the binary heaps used by best-first tree search.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// Item is a heap element. Ties on Distance are broken by ID so that pop
// order is deterministic.
type Item struct {
	ID       uint32  // object id or page id, see Page
	Distance float64 // priority
	Page     bool    // true if ID names a tree page rather than an object
}

func (a Item) before(b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Page != b.Page {
		// Objects surface before pages at equal distance.
		return !a.Page
	}
	return a.ID < b.ID
}

// PriorityQueue is a value-based binary heap of Items.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin initializes a min-heap on (Distance, ID).
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]Item, 0, capacity)}
}

// NewMax initializes a max-heap on (Distance, ID).
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Item, 0, capacity)}
}

// Top returns the top element of the heap.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// PushItem inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) PushItem(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// PopItem removes and returns the top element.
func (pq *PriorityQueue) PopItem() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Items returns the backing slice in heap order. Callers must not modify it.
func (pq *PriorityQueue) Items() []Item { return pq.items }

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.Less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && pq.Less(r, l) {
			best = r
		}
		if !pq.Less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Less reports whether the element with index i should sort before the element with index j.
func (pq *PriorityQueue) Less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[j].before(pq.items[i])
	}
	return pq.items[i].before(pq.items[j])
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push adds x to the priority queue. Use heap.Push.
func (pq *PriorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(Item))
}

// Pop removes the last element. Use heap.Pop.
func (pq *PriorityQueue) Pop() any {
	n := len(pq.items)
	if n == 0 {
		return Item{}
	}
	item := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	return item
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}
