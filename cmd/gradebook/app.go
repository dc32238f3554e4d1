package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/roster"
)

type services struct {
	records    *cache.Cache[string, any]
	statistics *cache.Cache[string, any]
	pipeline   *audit.Pipeline

	students *roster.Directory
	grades   *roster.Gradebook
	class    *roster.ClassStatistics
}

// app is the interactive menu. Input arrives one line at a time on lines.
type app struct {
	*services

	out    io.Writer
	logger log.Logger
	lines  <-chan string
	ctx    context.Context
}

func newApp(cfg *Config, logger log.Logger, reg prometheus.Registerer, out io.Writer) (*app, error) {
	s, err := wire(cfg, logger, reg)
	if err != nil {
		return nil, err
	}
	if err := s.pipeline.Start(); err != nil {
		return nil, err
	}
	if cfg.StatisticsRefresh > 0 {
		if err := s.class.StartAutoRefresh(cfg.StatisticsRefresh); err != nil {
			s.pipeline.Stop()
			return nil, err
		}
	}
	return &app{services: s, out: out, logger: logger}, nil
}

// shutdown stops background work. Audit entries still queued are lost and
// reported.
func (a *app) shutdown() {
	a.class.StopAutoRefresh()
	a.records.Close()
	a.statistics.Close()

	if n := a.pipeline.Stop(); n > 0 {
		fmt.Fprintf(a.out, "%d audit entries were not written before exit.\n", n)
	}
	level.Info(a.logger).Log("msg", "gradebook stopped")
}

var errInputClosed = errors.New("input closed")

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	select {
	case <-a.ctx.Done():
		return "", a.ctx.Err()
	case line, ok := <-a.lines:
		if !ok {
			return "", errInputClosed
		}
		return strings.TrimSpace(line), nil
	}
}

func (a *app) run(ctx context.Context, lines <-chan string) {
	a.ctx, a.lines = ctx, lines

	for {
		fmt.Fprint(a.out, `
STUDENT GRADE MANAGEMENT
1. Add Student
2. Record Grade
3. Find Student
4. View Student Grades
5. Class Statistics
6. Cache Management
7. Audit Trail
0. Exit
`)
		choice, err := a.prompt("Enter choice: ")
		if err != nil {
			return
		}

		switch choice {
		case "1":
			err = a.addStudent()
		case "2":
			err = a.recordGrade()
		case "3":
			err = a.findStudent()
		case "4":
			err = a.viewGrades()
		case "5":
			a.classStatistics()
		case "6":
			err = a.cacheMenu()
		case "7":
			err = a.auditMenu()
		case "0":
			fmt.Fprintln(a.out, "Goodbye.")
			return
		default:
			fmt.Fprintln(a.out, "Invalid choice.")
		}
		if err != nil {
			return
		}
	}
}

// report prints a business error. Only input errors end the menu.
func (a *app) report(err error) error {
	if err == nil || errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return nil
}

func (a *app) addStudent() error {
	name, err := a.prompt("Name: ")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email: ")
	if err != nil {
		return err
	}
	kind, err := a.prompt("Type (Regular/Honors): ")
	if err != nil {
		return err
	}

	st, err := a.students.Add(name, email, parseKind(kind))
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Student added successfully! ID: %s\n", st.ID)
	return nil
}

func parseKind(s string) roster.StudentKind {
	switch strings.ToLower(s) {
	case "", "regular":
		return roster.Regular
	case "honors":
		return roster.Honors
	}
	return roster.StudentKind(s)
}

func (a *app) recordGrade() error {
	id, err := a.prompt("Student ID: ")
	if err != nil {
		return err
	}
	subject, err := a.prompt("Subject: ")
	if err != nil {
		return err
	}
	raw, err := a.prompt("Score (0-100): ")
	if err != nil {
		return err
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return a.report(fmt.Errorf("%w: %q is not a number", roster.ErrInvalidGrade, raw))
	}
	g, err := a.grades.Record(strings.ToUpper(id), subject, score)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Grade %s recorded.\n", g.ID)
	return nil
}

func (a *app) findStudent() error {
	id, err := a.prompt("Student ID: ")
	if err != nil {
		return err
	}
	st, err := a.students.Find(a.ctx, strings.ToUpper(id))
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s | %s | %s | %s\n", st.ID, st.Name, st.Email, st.Kind)
	return nil
}

func (a *app) viewGrades() error {
	id, err := a.prompt("Student ID: ")
	if err != nil {
		return err
	}
	grades, err := a.grades.GradesFor(strings.ToUpper(id))
	if err != nil {
		return a.report(err)
	}
	if len(grades) == 0 {
		fmt.Fprintln(a.out, "No grades recorded.")
		return nil
	}
	for _, g := range grades {
		fmt.Fprintf(a.out, "%s | %s | %.1f | %s\n", g.ID, g.Subject, g.Score, g.RecordedAt.UTC().Format(time.DateOnly))
	}
	return nil
}

func (a *app) classStatistics() {
	s := a.class.Summary()
	fmt.Fprintln(a.out, "\nCLASS STATISTICS")
	fmt.Fprintf(a.out, "Students: %d\n", s.Students)
	fmt.Fprintf(a.out, "Grades: %d\n", s.Grades)
	if s.Grades > 0 {
		fmt.Fprintf(a.out, "Mean: %.2f\n", s.Mean)
		fmt.Fprintf(a.out, "Highest: %.1f\n", s.Highest)
		fmt.Fprintf(a.out, "Lowest: %.1f\n", s.Lowest)
	}
	fmt.Fprintf(a.out, "Computed: %s\n", s.ComputedAt.UTC().Format(time.RFC3339))
}

func (a *app) cacheMenu() error {
	fmt.Fprint(a.out, `
CACHE MANAGEMENT
1. Statistics
2. Contents
3. Invalidate Key
4. Clear All
`)
	choice, err := a.prompt("Enter choice: ")
	if err != nil {
		return err
	}

	start := time.Now()
	var desc string
	switch choice {
	case "1":
		cache.PrintStats(a.out, a.records.Stats())
		cache.PrintStats(a.out, a.statistics.Stats())
		desc = "Viewed cache statistics"
	case "2":
		cache.PrintContents(a.out, a.records.Contents())
		cache.PrintContents(a.out, a.statistics.Contents())
		desc = "Viewed cache contents"
	case "3":
		key, err := a.prompt("Key: ")
		if err != nil {
			return err
		}
		if key == roster.ClassStatsKey {
			a.class.Invalidate()
		} else {
			a.records.Invalidate(key)
		}
		fmt.Fprintf(a.out, "Invalidated %s.\n", key)
		desc = "Invalidated " + key
	case "4":
		a.records.Clear()
		a.statistics.Clear()
		fmt.Fprintln(a.out, "Caches cleared.")
		desc = "Cleared caches"
	default:
		fmt.Fprintln(a.out, "Invalid choice.")
		return nil
	}
	a.pipeline.Log(audit.CacheManagement, desc, time.Since(start), true)
	return nil
}

func (a *app) auditMenu() error {
	fmt.Fprint(a.out, `
AUDIT TRAIL
1. Recent Entries
2. By Operation
3. By Thread
4. By Date Range
5. Statistics
6. Pipeline Status
`)
	choice, err := a.prompt("Enter choice: ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		raw, err := a.prompt("How many: ")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return a.report(fmt.Errorf("invalid count %q", raw))
		}
		audit.PrintEntries(a.out, "RECENT AUDIT LOGS", a.pipeline.Recent(n))
	case "2":
		raw, err := a.prompt("Operation: ")
		if err != nil {
			return err
		}
		kind, err := audit.ParseOperationKind(raw)
		if err != nil {
			return a.report(err)
		}
		audit.PrintEntries(a.out, "AUDIT LOGS - Operation: "+string(kind), a.pipeline.ByOperation(kind))
	case "3":
		id, err := a.prompt("Thread: ")
		if err != nil {
			return err
		}
		audit.PrintEntries(a.out, "AUDIT LOGS - Thread: "+id, a.pipeline.ByThread(id))
	case "4":
		from, err := a.promptDate("Start date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		to, err := a.promptDate("End date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		title := fmt.Sprintf("AUDIT LOGS - From %s to %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
		audit.PrintEntries(a.out, title, a.pipeline.ByDateRange(from, to))
	case "5":
		audit.PrintStatistics(a.out, a.pipeline.Statistics())
	case "6":
		s := a.pipeline.Stats()
		fmt.Fprintf(a.out, "Queued: %d | Written: %d | Failed: %d | Discarded: %d | Rotations: %d\n",
			s.Depth, s.Written, s.Failed, s.Discarded, s.Rotations)
	default:
		fmt.Fprintln(a.out, "Invalid choice.")
	}
	return nil
}

func (a *app) promptDate(label string) (time.Time, error) {
	for {
		raw, err := a.prompt(label)
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err == nil {
			return t, nil
		}
		fmt.Fprintln(a.out, "Use the form YYYY-MM-DD.")
	}
}
