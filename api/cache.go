// Package api holds the contracts the business layer programs against.
package api

import (
	"time"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/refresh"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

/*
Cache is the PUBLIC API of the in-memory cache.
Storage, eviction, concurrency and refresh scheduling stay hidden behind it.
None of these methods block on I/O or return errors on the hot path.
*/
type Cache[K comparable, V any] interface {

	/*
		Get returns the value stored under key.

		BEHAVIOR:
		-------------------
		1. Key present: return (value, true), count a hit, refresh the
		   entry's last-access time
		2. Key absent: return (zero, false), count a miss

		Get never loads from a backing store.
	*/
	Get(key K) (V, bool)

	/*
		Put stores a key-value pair.

		BEHAVIOR:
		---------
		- Overwriting an existing key replaces its value and never evicts
		- A new key on a full cache first evicts the entry with the oldest
		  last-access time
		- After Put returns, the size is at most the capacity
	*/
	Put(key K, value V)

	/*
		Invalidate removes a key immediately and counts an eviction.

		This operation is idempotent:
		- Removing a non-existing key is safe and changes nothing
	*/
	Invalidate(key K)

	// Clear removes every entry. Hit, miss and eviction counters are kept.
	Clear()

	/*
		StartAutoRefresh runs task every interval in the background, first
		after one interval. A failing or panicking run does not stop the
		schedule. A non-positive interval is rejected.
	*/
	StartAutoRefresh(interval time.Duration, task refresh.Task) error

	// StopAutoRefresh cancels the schedule without waiting for a run in flight.
	StopAutoRefresh()

	// Stats returns a snapshot of the counters.
	Stats() types.Stats
}

/*
Auditor records completed operations.

Log returns immediately whatever the state of the writer, and never reports
whether the entry was persisted.
*/
type Auditor interface {
	Log(kind audit.OperationKind, description string, d time.Duration, success bool)
}
