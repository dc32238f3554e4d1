package types

// This file defines how a cache reports what it is doing.

/*
Metrics is the set of events a cache emits. The cache keeps its own
counters for Stats(); Metrics exists so that the same events can be exported
somewhere else (Prometheus, a test recorder) without the cache knowing where.
*/
type Metrics interface {

	// Hit is called when Get finds the key.
	Hit()

	// Miss is called when Get does NOT find the key.
	Miss()

	// Eviction is called when an entry is removed to make room, or removed by
	// explicit invalidation.
	Eviction()

	// Refresh is called every time the scheduled refresh task runs.
	Refresh()

	// RefreshFailure is called when a refresh run returns an error or panics.
	RefreshFailure()
}

/*
NoopMetrics is the default Metrics. It lets the cache call its hooks
unconditionally instead of checking for nil on every operation.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()            {}
func (NoopMetrics) Miss()           {}
func (NoopMetrics) Eviction()       {}
func (NoopMetrics) Refresh()        {}
func (NoopMetrics) RefreshFailure() {}
