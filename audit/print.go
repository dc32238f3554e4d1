package audit

import (
	"fmt"
	"io"
)

// PrintEntries writes a titled block with one line per entry.
func PrintEntries(w io.Writer, title string, entries []Entry) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, "----------------------------------")
	if len(entries) == 0 {
		fmt.Fprintln(w, "(no entries)")
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, e.Line())
	}
}

// PrintStatistics writes the audit trail summary.
func PrintStatistics(w io.Writer, s Statistics) {
	fmt.Fprintln(w, "\nAUDIT STATISTICS")
	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "Total Operations Logged: %d\n", s.TotalLogged)
	fmt.Fprintf(w, "Retained Entries: %d\n", s.TotalOps)
	fmt.Fprintf(w, "Average Execution Time: %.2f ms\n", s.AvgDurationMs)
	fmt.Fprintln(w, "Operations by Type:")
	for _, k := range OperationKinds() {
		fmt.Fprintf(w, "  %s: %d\n", k, s.CountsByOperation[k])
	}
}
