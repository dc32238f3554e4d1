package roster

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/api"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/types"
)

// Directory holds the students. Lookups by ID go through the cache under
// STUDENT_<id>.
type Directory struct {
	mu    sync.RWMutex
	byID  map[string]Student
	order []string

	ids     *Sequence
	cache   Cache
	auditor api.Auditor
	clock   func() time.Time
}

// NewDirectory returns an empty directory. auditor may be nil.
func NewDirectory(c Cache, auditor api.Auditor) *Directory {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &Directory{
		byID:    make(map[string]Student),
		ids:     NewSequence("STU"),
		cache:   c,
		auditor: auditor,
		clock:   time.Now,
	}
}

// Add registers a new student and assigns its ID.
func (d *Directory) Add(name, email string, kind StudentKind) (st Student, err error) {
	start := d.clock()
	defer func() {
		desc := "Added student " + st.ID
		if err != nil {
			desc = "Rejected student: " + err.Error()
		}
		d.auditor.Log(audit.AddStudent, desc, d.clock().Sub(start), err == nil)
	}()

	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, fmt.Errorf("%w: name is required", ErrInvalidStudent)
	}
	switch kind {
	case "":
		kind = Regular
	case Regular, Honors:
	default:
		return Student{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidStudent, kind)
	}

	st = Student{
		ID:      d.ids.Next(),
		Name:    name,
		Email:   strings.TrimSpace(email),
		Kind:    kind,
		Created: start,
	}

	d.mu.Lock()
	d.byID[st.ID] = st
	d.order = append(d.order, st.ID)
	d.mu.Unlock()

	return st, nil
}

// Find returns a student, serving repeat lookups from the cache.
func (d *Directory) Find(ctx context.Context, id string) (Student, error) {
	start := d.clock()

	v, err := d.cache.GetOrLoad(ctx, studentKey(id), types.LoaderFunc[string, any](func(context.Context, string) (any, error) {
		st, ok := d.lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
		}
		return st, nil
	}))

	st, ok := v.(Student)
	if err == nil && !ok {
		err = fmt.Errorf("unexpected cache value %T for %s", v, studentKey(id))
	}

	desc := "Found student " + id
	if err != nil {
		desc = "Student lookup failed: " + err.Error()
	}
	d.auditor.Log(audit.FindStudent, desc, d.clock().Sub(start), err == nil)

	if err != nil {
		return Student{}, err
	}
	return st, nil
}

// Exists reports whether id is registered, without touching the cache.
func (d *Directory) Exists(id string) bool {
	_, ok := d.lookup(id)
	return ok
}

func (d *Directory) lookup(id string) (Student, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.byID[id]
	return st, ok
}

// List returns the students in the order they were added.
func (d *Directory) List() []Student {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Student, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}
