// Package roster is the student and grade bookkeeping that sits on top of
// the cache and the audit pipeline.
package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/api"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidStudent  = errors.New("invalid student")
	ErrInvalidGrade    = errors.New("invalid grade")
)

// Cache keys shared with the cache management screens.
const (
	StudentKeyPrefix = "STUDENT_"
	GradesKeyPrefix  = "GRADES_"
	ClassStatsKey    = "CLASS_STATISTICS"
)

func studentKey(id string) string { return StudentKeyPrefix + id }
func gradesKey(id string) string  { return GradesKeyPrefix + id }

// Cache is the cache contract plus read-through loading.
type Cache interface {
	api.Cache[string, any]
	GetOrLoad(ctx context.Context, key string, loader types.Loader[string, any]) (any, error)
}

// StudentKind distinguishes regular and honors students.
type StudentKind string

const (
	Regular StudentKind = "Regular"
	Honors  StudentKind = "Honors"
)

type Student struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Kind    StudentKind `json:"kind"`
	Created time.Time   `json:"created"`
}

type Grade struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Subject    string    `json:"subject"`
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Sequence hands out IDs like STU001, STU002. Each instance counts on its
// own, so two directories never share numbering.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next ID. Safe for concurrent use.
func (s *Sequence) Next() string {
	return fmt.Sprintf("%s%03d", s.prefix, s.n.Inc())
}

type nopAuditor struct{}

func (nopAuditor) Log(audit.OperationKind, string, time.Duration, bool) {}
