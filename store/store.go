package store

import (
	"sync"

	"go.uber.org/atomic"
)

/*
This file defines how cache entries are actually held. It is NOT a normal map.
- Reads are very frequent and must NOT take a lock
- Writes are rarer and can afford extra work
- Introspection wants a point-in-time snapshot, not a live view

To achieve this, we use a technique called "Copy-On-Write" (COW).
*/

/*
COW is a copy-on-write map.

- Readers always see an immutable map
- Writers build a NEW map and swap it in atomically
- Snapshot hands out the current map itself; nobody ever mutates it again

Writes copy the whole map, so they are O(n). That is the trade for lock-free
reads and free snapshots, and is fine for the small capacities a cache of
domain objects runs with.
*/
type COW[K comparable, V any] struct {
	// data holds the current map[K]V.
	data atomic.Pointer[map[K]V]

	// mu serializes writers so that no update is lost between load and swap.
	mu sync.Mutex
}

// NewCOW creates an empty store.
func NewCOW[K comparable, V any]() *COW[K, V] {
	s := &COW[K, V]{}
	m := make(map[K]V)
	s.data.Store(&m)
	return s
}

func (s *COW[K, V]) load() map[K]V {
	return *s.data.Load()
}

// Get retrieves a value.
func (s *COW[K, V]) Get(key K) (V, bool) {
	v, ok := s.load()[key]
	return v, ok
}

// Put inserts or replaces a value.
func (s *COW[K, V]) Put(key K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	n := make(map[K]V, len(old)+1)
	for k, e := range old {
		n[k] = e
	}
	n[key] = v
	s.data.Store(&n)
}

// Delete removes a key and reports whether it was present.
func (s *COW[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.load()
	if _, ok := old[key]; !ok {
		return false
	}
	n := make(map[K]V, len(old))
	for k, e := range old {
		if k != key {
			n[k] = e
		}
	}
	s.data.Store(&n)
	return true
}

// Reset empties the store.
func (s *COW[K, V]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := make(map[K]V)
	s.data.Store(&n)
}

// Len returns how many entries are stored.
func (s *COW[K, V]) Len() int {
	return len(s.load())
}

// Snapshot returns the current map. Callers must not modify it.
func (s *COW[K, V]) Snapshot() map[K]V {
	return s.load()
}
