package audit

import (
	"fmt"
	"strings"
	"time"
)

// TimeFormat is RFC 3339 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry is one completed operation. Entries are values and never change
// after Log builds them.
type Entry struct {
	Timestamp   time.Time     `json:"timestamp"`
	Caller      string        `json:"caller"`
	Operation   OperationKind `json:"operation"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Success     bool          `json:"success"`
}

// DurationMs returns the duration in whole milliseconds.
func (e Entry) DurationMs() int64 {
	return e.Duration.Milliseconds()
}

func (e Entry) status() string {
	if e.Success {
		return "SUCCESS"
	}
	return "FAILURE"
}

var flatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Line renders the entry as one log line, without the trailing newline.
func (e Entry) Line() string {
	return fmt.Sprintf("%s | thread=%s | op=%s | time=%dms | %s | %s",
		e.Timestamp.UTC().Format(TimeFormat),
		e.Caller,
		e.Operation,
		e.DurationMs(),
		e.status(),
		flatten.Replace(e.Description),
	)
}

func (e Entry) String() string {
	return e.Line()
}
