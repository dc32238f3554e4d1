package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCacheMetricsPerCacheLabel(t *testing.T) {
	v := NewCacheVecs(prometheus.NewRegistry())

	students := v.For("students")
	stats := v.For("statistics")

	students.Hit()
	students.Hit()
	students.Miss()
	stats.Eviction()
	stats.Refresh()
	stats.RefreshFailure()

	require.Equal(t, float64(2), testutil.ToFloat64(v.Hits.WithLabelValues("students")))
	require.Equal(t, float64(1), testutil.ToFloat64(v.Misses.WithLabelValues("students")))
	require.Equal(t, float64(0), testutil.ToFloat64(v.Hits.WithLabelValues("statistics")))
	require.Equal(t, float64(1), testutil.ToFloat64(v.Evictions.WithLabelValues("statistics")))
	require.Equal(t, float64(1), testutil.ToFloat64(v.Refreshes.WithLabelValues("statistics")))
	require.Equal(t, float64(1), testutil.ToFloat64(v.RefreshFailures.WithLabelValues("statistics")))
}

func TestCacheVecsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := NewCacheVecs(reg)
	m := v.For("students")
	m.Hit()
	m.Miss()
	m.Eviction()
	m.Refresh()
	m.RefreshFailure()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["gradebook_cache_hits_total"])
	require.True(t, names["gradebook_cache_misses_total"])
	require.True(t, names["gradebook_cache_evictions_total"])
	require.True(t, names["gradebook_cache_refresh_runs_total"])
	require.True(t, names["gradebook_cache_refresh_failures_total"])
}
