package roster

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/api"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
)

// Summary is the class-wide aggregate.
type Summary struct {
	Students   int       `json:"students"`
	Grades     int       `json:"grades"`
	Mean       float64   `json:"mean"`
	Highest    float64   `json:"highest"`
	Lowest     float64   `json:"lowest"`
	ComputedAt time.Time `json:"computed_at"`
}

// ClassStatistics caches the class Summary under CLASS_STATISTICS. A new
// grade drops the cached value; StartAutoRefresh recomputes it on a schedule.
type ClassStatistics struct {
	students *Directory
	grades   *Gradebook
	cache    api.Cache[string, any]
	auditor  api.Auditor
	clock    func() time.Time

	// gen changes on every Invalidate. A summary computed under an older
	// generation is dropped right after it is stored.
	gen atomic.Uint64
}

// NewClassStatistics hooks itself into grades so each recorded grade
// invalidates the cached summary. auditor may be nil.
func NewClassStatistics(students *Directory, grades *Gradebook, c api.Cache[string, any], auditor api.Auditor) *ClassStatistics {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	s := &ClassStatistics{
		students: students,
		grades:   grades,
		cache:    c,
		auditor:  auditor,
		clock:    time.Now,
	}
	grades.OnRecord(func(Grade) { s.Invalidate() })
	return s
}

// Summary returns the cached aggregate, computing it on a miss.
func (s *ClassStatistics) Summary() Summary {
	start := s.clock()

	sum, cached := s.cachedSummary()
	if !cached {
		gen := s.gen.Load()
		sum = s.compute()
		s.store(sum, gen)
	}

	desc := fmt.Sprintf("Class statistics over %d grades", sum.Grades)
	if cached {
		desc += " (cached)"
	}
	s.auditor.Log(audit.CalculateStatistics, desc, s.clock().Sub(start), true)
	return sum
}

func (s *ClassStatistics) cachedSummary() (Summary, bool) {
	v, ok := s.cache.Get(ClassStatsKey)
	if !ok {
		return Summary{}, false
	}
	sum, ok := v.(Summary)
	return sum, ok
}

// Refresh recomputes the summary and stores it. It is the auto-refresh task.
func (s *ClassStatistics) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gen := s.gen.Load()
	s.store(s.compute(), gen)
	return nil
}

func (s *ClassStatistics) store(sum Summary, gen uint64) {
	s.cache.Put(ClassStatsKey, sum)
	if s.gen.Load() != gen {
		s.cache.Invalidate(ClassStatsKey)
	}
}

// StartAutoRefresh recomputes the summary every interval.
func (s *ClassStatistics) StartAutoRefresh(interval time.Duration) error {
	return s.cache.StartAutoRefresh(interval, s.Refresh)
}

func (s *ClassStatistics) StopAutoRefresh() {
	s.cache.StopAutoRefresh()
}

// Invalidate drops the cached summary.
func (s *ClassStatistics) Invalidate() {
	s.gen.Inc()
	s.cache.Invalidate(ClassStatsKey)
}

func (s *ClassStatistics) compute() Summary {
	all := s.grades.All()
	sum := Summary{
		Students:   s.students.Len(),
		Grades:     len(all),
		ComputedAt: s.clock(),
	}
	if len(all) == 0 {
		return sum
	}

	total := 0.0
	sum.Highest, sum.Lowest = all[0].Score, all[0].Score
	for _, g := range all {
		total += g.Score
		if g.Score > sum.Highest {
			sum.Highest = g.Score
		}
		if g.Score < sum.Lowest {
			sum.Lowest = g.Score
		}
	}
	sum.Mean = total / float64(len(all))
	return sum
}
