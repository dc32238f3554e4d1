package roster

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/api"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
)

const (
	MinScore = 0
	MaxScore = 100
)

/*
Gradebook records grades per student.

GradesFor is served from the cache under GRADES_<id>. Recording a grade
invalidates that key, then calls every OnRecord hook so dependent aggregates
can drop their cached value.
*/
type Gradebook struct {
	mu     sync.RWMutex
	grades map[string][]Grade
	total  int

	hooksMu sync.Mutex
	hooks   []func(Grade)

	ids      *Sequence
	students *Directory
	cache    api.Cache[string, any]
	auditor  api.Auditor
	clock    func() time.Time
}

// NewGradebook returns an empty gradebook for students. auditor may be nil.
func NewGradebook(students *Directory, c api.Cache[string, any], auditor api.Auditor) *Gradebook {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &Gradebook{
		grades:   make(map[string][]Grade),
		ids:      NewSequence("GRD"),
		students: students,
		cache:    c,
		auditor:  auditor,
		clock:    time.Now,
	}
}

// OnRecord registers fn to run after each successfully recorded grade.
func (g *Gradebook) OnRecord(fn func(Grade)) {
	g.hooksMu.Lock()
	g.hooks = append(g.hooks, fn)
	g.hooksMu.Unlock()
}

// Record stores a score in [MinScore, MaxScore] for a registered student.
func (g *Gradebook) Record(studentID, subject string, score float64) (gr Grade, err error) {
	start := g.clock()
	defer func() {
		desc := fmt.Sprintf("Recorded grade %s for %s", gr.ID, studentID)
		if err != nil {
			desc = "Rejected grade: " + err.Error()
		}
		g.auditor.Log(audit.RecordGrade, desc, g.clock().Sub(start), err == nil)
	}()

	subject = strings.TrimSpace(subject)
	switch {
	case math.IsNaN(score) || score < MinScore || score > MaxScore:
		return Grade{}, fmt.Errorf("%w: score %v outside %d-%d", ErrInvalidGrade, score, MinScore, MaxScore)
	case subject == "":
		return Grade{}, fmt.Errorf("%w: subject is required", ErrInvalidGrade)
	case !g.students.Exists(studentID):
		return Grade{}, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}

	gr = Grade{
		ID:         g.ids.Next(),
		StudentID:  studentID,
		Subject:    subject,
		Score:      score,
		RecordedAt: start,
	}

	g.mu.Lock()
	g.grades[studentID] = append(g.grades[studentID], gr)
	g.total++
	g.mu.Unlock()

	g.cache.Invalidate(gradesKey(studentID))

	g.hooksMu.Lock()
	hooks := append(([]func(Grade))(nil), g.hooks...)
	g.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(gr)
	}
	return gr, nil
}

// GradesFor returns a student's grades, newest first. The returned slice
// is shared with the cache and must not be modified.
func (g *Gradebook) GradesFor(studentID string) (grades []Grade, err error) {
	start := g.clock()
	defer func() {
		desc := fmt.Sprintf("Viewed %d grades for %s", len(grades), studentID)
		if err != nil {
			desc = "Grade lookup failed: " + err.Error()
		}
		g.auditor.Log(audit.ViewGrades, desc, g.clock().Sub(start), err == nil)
	}()

	if !g.students.Exists(studentID) {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
	}

	key := gradesKey(studentID)
	if v, ok := g.cache.Get(key); ok {
		if cached, ok := v.([]Grade); ok {
			return cached, nil
		}
	}

	// Hold the read lock across Put so a concurrent Record invalidates
	// after this value lands, never before.
	g.mu.RLock()
	defer g.mu.RUnlock()

	src := g.grades[studentID]
	grades = make([]Grade, len(src))
	for i, gr := range src {
		grades[len(src)-1-i] = gr
	}
	g.cache.Put(key, grades)
	return grades, nil
}

// All returns every recorded grade, grouped by student in directory order.
func (g *Gradebook) All() []Grade {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Grade, 0, g.total)
	for _, st := range g.students.List() {
		out = append(out, g.grades[st.ID]...)
	}
	return out
}

// Len returns the number of recorded grades.
func (g *Gradebook) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.total
}
