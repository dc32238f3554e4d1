// This file implements LRU eviction.

package eviction

// lruNode is one key in the recency list.
type lruNode[K comparable] struct {
	key K

	// prev points towards the most recently used end.
	prev *lruNode[K]

	// next points towards the least recently used end.
	next *lruNode[K]
}

// lru is the O(1) LRU policy: a map for lookup plus a doubly-linked list
// ordered by recency.
type lru[K comparable] struct {
	nodes map[K]*lruNode[K]

	// head is the MOST recently used key
	head *lruNode[K]

	// tail is the LEAST recently used key
	tail *lruNode[K]
}

func newLRU[K comparable]() *lru[K] {
	return &lru[K]{nodes: make(map[K]*lruNode[K])}
}

func (l *lru[K]) TracksReads() bool { return true }

func (l *lru[K]) OnGet(k K) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
	}
}

// OnPut inserts a new key at the front; an overwrite counts as a use.
func (l *lru[K]) OnPut(k K) {
	if n, ok := l.nodes[k]; ok {
		l.moveToFront(n)
		return
	}
	n := &lruNode[K]{key: k}
	l.nodes[k] = n
	l.addFront(n)
}

// Evict removes the key at the tail.
func (l *lru[K]) Evict() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	k := l.tail.key
	l.remove(l.tail)
	delete(l.nodes, k)
	return k, true
}

func (l *lru[K]) Remove(k K) {
	if n, ok := l.nodes[k]; ok {
		l.remove(n)
		delete(l.nodes, k)
	}
}

func (l *lru[K]) Reset() {
	l.nodes = make(map[K]*lruNode[K])
	l.head, l.tail = nil, nil
}

func (l *lru[K]) addFront(n *lruNode[K]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *lru[K]) remove(n *lruNode[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *lru[K]) moveToFront(n *lruNode[K]) {
	if l.head == n {
		return
	}
	l.remove(n)
	l.addFront(n)
}
