package types

import "time"

// Stats is a point-in-time view of a cache's counters.
type Stats struct {
	Name            string  `json:"name"`
	Entries         int     `json:"entries"`
	Capacity        int     `json:"capacity"`
	Hits            uint64  `json:"hits"`
	Misses          uint64  `json:"misses"`
	HitRate         float64 `json:"hit_rate"`
	MissRate        float64 `json:"miss_rate"`
	Evictions       uint64  `json:"evictions"`
	RefreshRuns     uint64  `json:"refresh_runs"`
	RefreshFailures uint64  `json:"refresh_failures"`
}

// Lookups returns hits + misses, i.e. the number of Get calls served.
func (s Stats) Lookups() uint64 {
	return s.Hits + s.Misses
}

// HitRatio returns hit and miss percentages. Both are 0 before the first lookup.
func HitRatio(hits, misses uint64) (hitRate, missRate float64) {
	total := hits + misses
	if total == 0 {
		return 0, 0
	}
	hitRate = float64(hits) / float64(total) * 100
	return hitRate, 100 - hitRate
}

// EntryInfo describes one cached key for introspection.
type EntryInfo[K comparable] struct {
	Key        K         `json:"key"`
	LastAccess time.Time `json:"last_access"`
}
