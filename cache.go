// Package cache is a bounded, concurrency-safe key/value cache with
// approximate-LRU eviction, hit/miss/eviction accounting and an optional
// scheduled background refresh.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/eviction"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/refresh"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/store"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

// Stats is a point-in-time view of a cache's counters.
type Stats = types.Stats

// ErrInvalidInterval is returned by StartAutoRefresh for a non-positive interval.
var ErrInvalidInterval = refresh.ErrInvalidInterval

/*
Cache is the main cache implementation.
This struct is the orchestrator that connects:
- storage (copy-on-write map, lock-free reads)
- eviction (Scan by default)
- stats counters
- the refresh scheduler
- metrics and logging hooks
*/
type Cache[K comparable, V any] struct {
	name     string
	capacity int

	// entries holds the data. Reads never lock.
	entries *store.COW[K, *types.Entry[V]]

	// mu serializes writers, so the capacity check, the eviction and the
	// insert of one Put happen as a single step. Policy bookkeeping is only
	// touched under mu.
	mu     sync.Mutex
	policy eviction.Policy[K]

	clock func() time.Time

	// ticks orders touches that share a wall-clock timestamp.
	ticks atomic.Uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	metrics   types.Metrics
	logger    log.Logger
	refresher *refresh.Scheduler

	// sf prevents concurrent misses on one key from loading it twice.
	sf singleflight.Group
}

// New creates a cache. It starts no goroutine; see StartAutoRefresh.
// A nil logger or metrics disables that output.
func New[K comparable, V any](cfg Config, logger log.Logger, m types.Metrics) (*Cache[K, V], error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if m == nil {
		m = types.NoopMetrics{}
	}

	c := &Cache[K, V]{
		name:     cfg.Name,
		capacity: cfg.Capacity,
		entries:  store.NewCOW[K, *types.Entry[V]](),
		clock:    time.Now,
		metrics:  m,
		logger:   log.With(logger, "component", "cache", "cache", cfg.Name),
	}

	policyType, _ := eviction.ParsePolicyType(string(cfg.Eviction))
	policy, err := eviction.New[K](policyType, c.oldest)
	if err != nil {
		return nil, err
	}
	c.policy = policy

	c.refresher = refresh.NewScheduler(cfg.Name, logger)
	c.refresher.OnRun = m.Refresh
	c.refresher.OnFailure = func(error) { m.RefreshFailure() }

	return c, nil
}

/*
Get retrieves a value from the cache.

A hit bumps the hit counter and the entry's access stamp. A miss bumps the
miss counter and returns the zero value. Get never blocks on I/O.
*/
func (c *Cache[K, V]) Get(key K) (V, bool) {
	ent, ok := c.entries.Get(key)
	if !ok {
		c.misses.Inc()
		c.metrics.Miss()
		var zero V
		return zero, false
	}

	c.hits.Inc()
	c.metrics.Hit()
	ent.Touch(c.clock(), c.ticks.Inc())

	if c.policy.TracksReads() {
		c.mu.Lock()
		// The entry may have been evicted or replaced since the lookup.
		if cur, ok := c.entries.Get(key); ok && cur == ent {
			c.policy.OnGet(key)
		}
		c.mu.Unlock()
	}

	return ent.Value, true
}

/*
Put stores a value.

Overwriting an existing key replaces the value and resets its access stamp
without evicting anything. A new key arriving at a full cache evicts one
entry first. The capacity check is made against the size before insertion.
*/
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries.Get(key); !exists {
		for c.entries.Len() >= c.capacity {
			if !c.evictOne() {
				break
			}
		}
	}

	c.entries.Put(key, types.NewEntry(value, c.clock(), c.ticks.Inc()))
	c.policy.OnPut(key)
}

// evictOne removes the policy's victim. Must be called with mu held.
func (c *Cache[K, V]) evictOne() bool {
	key, ok := c.policy.Evict()
	if !ok {
		return false
	}
	if !c.entries.Delete(key) {
		// Policy and store disagree; nothing was freed.
		level.Warn(c.logger).Log("msg", "eviction victim not in cache", "key", key)
		return false
	}
	c.evictions.Inc()
	c.metrics.Eviction()
	level.Debug(c.logger).Log("msg", "evicted cache entry", "key", key)
	return true
}

// oldest finds the entry with the smallest access stamp. It backs the Scan
// policy and runs under mu, but concurrent Gets may still touch entries
// while it looks.
func (c *Cache[K, V]) oldest() (K, bool) {
	var (
		victim K
		found  *types.Entry[V]
	)
	for k, e := range c.entries.Snapshot() {
		if found == nil || e.OlderThan(found) {
			victim, found = k, e
		}
	}
	return victim, found != nil
}

/*
Invalidate removes a key. Removing an absent key does nothing, so calling it
twice is the same as calling it once. A removal counts as an eviction.
*/
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.entries.Delete(key) {
		return
	}
	c.policy.Remove(key)
	c.evictions.Inc()
	c.metrics.Eviction()
	level.Debug(c.logger).Log("msg", "cache entry invalidated", "key", key)
}

// Clear removes every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.entries.Len()
	c.entries.Reset()
	c.policy.Reset()
	level.Info(c.logger).Log("msg", "cache cleared", "entries", n)
}

/*
GetOrLoad returns the cached value for key, loading and caching it on a miss.

Concurrent misses on the same key share one load. Flights are keyed by the
key's %v form, so keys must print distinctly. A loader error is returned and
nothing is cached.
*/
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, loader types.Loader[K, V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if loader == nil {
		var zero V
		return zero, errors.New("cache: nil loader")
	}

	res, err, _ := c.sf.Do(fmt.Sprint(key), func() (any, error) {
		v, err := loader.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ := res.(V)
	return v, nil
}

/*
StartAutoRefresh runs task every interval on a dedicated goroutine, first
after one interval has passed. Failures and panics are logged and counted and
do not cancel later runs. Starting again replaces the previous schedule.
*/
func (c *Cache[K, V]) StartAutoRefresh(interval time.Duration, task refresh.Task) error {
	return c.refresher.Start(interval, task)
}

// StopAutoRefresh cancels the schedule. A run in flight has its context
// cancelled; nothing waits for it.
func (c *Cache[K, V]) StopAutoRefresh() {
	c.refresher.Stop()
}

// Close releases background resources.
func (c *Cache[K, V]) Close() {
	c.StopAutoRefresh()
}

// Stats returns the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate, missRate := types.HitRatio(hits, misses)
	rs := c.refresher.Stats()

	return Stats{
		Name:            c.name,
		Entries:         c.entries.Len(),
		Capacity:        c.capacity,
		Hits:            hits,
		Misses:          misses,
		HitRate:         hitRate,
		MissRate:        missRate,
		Evictions:       c.evictions.Load(),
		RefreshRuns:     rs.Runs,
		RefreshFailures: rs.Failures,
	}
}

// Contents returns a snapshot of keys and their last access times, most
// recently used first.
func (c *Cache[K, V]) Contents() []types.EntryInfo[K] {
	type row struct {
		info types.EntryInfo[K]
		tick uint64
	}

	snap := c.entries.Snapshot()
	rows := make([]row, 0, len(snap))
	for k, e := range snap {
		rows = append(rows, row{
			info: types.EntryInfo[K]{Key: k, LastAccess: e.LastAccess()},
			tick: e.Tick(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.info.LastAccess.Equal(b.info.LastAccess) {
			return a.info.LastAccess.After(b.info.LastAccess)
		}
		return a.tick > b.tick
	})

	out := make([]types.EntryInfo[K], len(rows))
	for i, r := range rows {
		out[i] = r.info
	}
	return out
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Capacity returns the configured maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Name returns the name the cache logs and reports under.
func (c *Cache[K, V]) Name() string {
	return c.name
}
