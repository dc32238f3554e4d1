package audit

import (
	"strings"
	"sync"
	"time"
)

// DefaultHistorySize is the number of entries kept for queries.
const DefaultHistorySize = 1000

// History keeps the most recent entries for the read side. It is filled at
// Log time, so what queries see does not depend on the writer's progress.
type History struct {
	mu   sync.RWMutex
	buf  []Entry
	next int
	full bool
}

// NewHistory returns a ring holding at most size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]Entry, size)}
}

// Add appends e, overwriting the oldest entry when full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	h.buf[h.next] = e
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
	h.mu.Unlock()
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Entries returns a copy of the retained entries, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.full {
		out := make([]Entry, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]Entry, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

// Recent returns the last limit entries, oldest first.
func (h *History) Recent(limit int) []Entry {
	all := h.Entries()
	if limit < 0 {
		limit = 0
	}
	if limit < len(all) {
		all = all[len(all)-limit:]
	}
	return all
}

// ByOperation returns the retained entries of one kind.
func (h *History) ByOperation(kind OperationKind) []Entry {
	return h.filter(func(e Entry) bool { return e.Operation == kind })
}

// ByThread matches the caller identity ignoring case.
func (h *History) ByThread(id string) []Entry {
	return h.filter(func(e Entry) bool { return strings.EqualFold(e.Caller, id) })
}

// ByDateRange returns entries from the start of start's UTC day through the
// end of end's UTC day.
func (h *History) ByDateRange(start, end time.Time) []Entry {
	from := utcDay(start)
	to := utcDay(end).AddDate(0, 0, 1)
	return h.filter(func(e Entry) bool {
		return !e.Timestamp.Before(from) && e.Timestamp.Before(to)
	})
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (h *History) filter(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range h.Entries() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Statistics summarizes the retained entries.
type Statistics struct {
	TotalOps          int                   `json:"total_ops"`
	AvgDurationMs     float64               `json:"avg_duration_ms"`
	CountsByOperation map[OperationKind]int `json:"counts_by_operation"`

	// TotalLogged counts every Log call, including entries no longer retained.
	TotalLogged uint64 `json:"total_logged"`
}

// Statistics computes counts and the mean duration over the retained entries.
// Every kind is present in CountsByOperation, with zero when unused.
func (h *History) Statistics() Statistics {
	entries := h.Entries()

	s := Statistics{
		TotalOps:          len(entries),
		CountsByOperation: make(map[OperationKind]int, len(OperationKinds())),
	}
	for _, k := range OperationKinds() {
		s.CountsByOperation[k] = 0
	}

	var totalMs int64
	for _, e := range entries {
		totalMs += e.DurationMs()
		s.CountsByOperation[e.Operation]++
	}
	if len(entries) > 0 {
		s.AvgDurationMs = float64(totalMs) / float64(len(entries))
	}
	return s
}
