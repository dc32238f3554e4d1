package types

import (
	"time"

	"go.uber.org/atomic"
)

// Entry is one cached value plus its recency stamp.
//
// The value is fixed for the lifetime of the entry; overwriting a key stores
// a fresh Entry. Only the access stamp is mutable, and it is updated
// atomically so that reads can touch an entry without taking the cache lock.
// A concurrent scan may observe a stamp that is about to change; the eviction
// scan tolerates that.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time

	lastAccess *atomic.Time

	// tick is a cache-wide logical clock value. Two touches can share a
	// wall-clock timestamp, never a tick.
	tick *atomic.Uint64
}

// NewEntry creates an entry whose access stamp is its creation time.
func NewEntry[V any](value V, now time.Time, tick uint64) *Entry[V] {
	return &Entry[V]{
		Value:      value,
		CreatedAt:  now,
		lastAccess: atomic.NewTime(now),
		tick:       atomic.NewUint64(tick),
	}
}

// Touch records an access.
func (e *Entry[V]) Touch(now time.Time, tick uint64) {
	e.lastAccess.Store(now)
	e.tick.Store(tick)
}

// LastAccess returns the time of the most recent access.
func (e *Entry[V]) LastAccess() time.Time {
	return e.lastAccess.Load()
}

// Tick returns the logical clock value of the most recent access.
func (e *Entry[V]) Tick() uint64 {
	return e.tick.Load()
}

// OlderThan reports whether e was last accessed before o. Wall-clock time
// decides; the tick breaks ties.
func (e *Entry[V]) OlderThan(o *Entry[V]) bool {
	a, b := e.LastAccess(), o.LastAccess()
	if !a.Equal(b) {
		return a.Before(b)
	}
	return e.Tick() < o.Tick()
}
