package cache

import (
	"fmt"
	"io"
	"time"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

// PrintStats writes a human-readable statistics block.
func PrintStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "CACHE STATISTICS (%s)\n", s.Name)
	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "Total Entries: %d / %d\n", s.Entries, s.Capacity)
	fmt.Fprintf(w, "Hits: %d (%.2f%%)\n", s.Hits, s.HitRate)
	fmt.Fprintf(w, "Misses: %d (%.2f%%)\n", s.Misses, s.MissRate)
	fmt.Fprintf(w, "Evictions: %d\n", s.Evictions)
	if s.RefreshRuns > 0 {
		fmt.Fprintf(w, "Refresh Runs: %d (%d failed)\n", s.RefreshRuns, s.RefreshFailures)
	}
}

// PrintContents writes one line per cached key with its last access time.
func PrintContents[K comparable](w io.Writer, contents []types.EntryInfo[K]) {
	fmt.Fprintln(w, "CACHE CONTENTS")
	fmt.Fprintln(w, "--------------")
	if len(contents) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for _, e := range contents {
		fmt.Fprintf(w, "%v | Last Accessed: %s\n", e.Key, e.LastAccess.UTC().Format(time.RFC3339Nano))
	}
}
