package audit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Sink persists entries. The pipeline calls Write from its writer goroutine
// only, so implementations need not be safe for concurrent use.
type Sink interface {
	Write(Entry) error
	Close() error
}

// ErrSinkClosed is returned by writes to a closed sink.
var ErrSinkClosed = errors.New("audit sink closed")

const dayFormat = "2006-01-02"

/*
RotatingFile appends one line per entry to a dated file in dir.

Files are named <prefix>_<YYYY-MM-DD>.log and, after a size rotation on the
same day, <prefix>_<YYYY-MM-DD>.<n>.log. A new file is started when the UTC
day changes or when the next line would push a non-empty file past
maxBytes. Writes are unbuffered, so every line is handed to the OS before
Write returns. A file that has been rotated away from is never written again.
*/
type RotatingFile struct {
	dir      string
	prefix   string
	maxBytes int64

	// OnRotate, if set, is called with the new path after each rotation.
	OnRotate func(path string)

	clock func() time.Time

	f      *os.File
	path   string
	day    string
	seq    int
	size   int64
	opened bool
	closed bool
}

// NewRotatingFile creates dir if needed. The first file is opened on the
// first write.
func NewRotatingFile(dir, prefix string, maxBytes int64) (*RotatingFile, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max file size must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &RotatingFile{
		dir:      dir,
		prefix:   prefix,
		maxBytes: maxBytes,
		clock:    time.Now,
	}, nil
}

// Path returns the file currently written to, or "" before the first write.
func (r *RotatingFile) Path() string {
	return r.path
}

func (r *RotatingFile) Write(e Entry) error {
	if r.closed {
		return ErrSinkClosed
	}

	line := e.Line() + "\n"
	day := r.clock().UTC().Format(dayFormat)

	if r.f == nil || day != r.day {
		if err := r.openDay(day); err != nil {
			return err
		}
	}
	if r.size > 0 && r.size+int64(len(line)) > r.maxBytes {
		if err := r.next(); err != nil {
			return err
		}
	}

	n, err := r.f.WriteString(line)
	r.size += int64(n)
	if err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

func (r *RotatingFile) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func (r *RotatingFile) fileName(day string, seq int) string {
	if seq == 0 {
		return filepath.Join(r.dir, fmt.Sprintf("%s_%s.log", r.prefix, day))
	}
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.%d.log", r.prefix, day, seq))
}

// openDay starts writing day's log. The first open of the process resumes
// the newest existing file for the day, so lines keep their order across
// restarts. Any later open starts a file no run has written yet.
func (r *RotatingFile) openDay(day string) error {
	resume, rotated := !r.opened, r.opened
	if err := r.closeCurrent(); err != nil {
		return err
	}

	last, err := r.lastSeq(day)
	if err != nil {
		return err
	}
	r.day = day
	if resume && last >= 0 {
		return r.open(last, false)
	}
	return r.open(last+1, rotated)
}

// next moves to a new file for the current day.
func (r *RotatingFile) next() error {
	if err := r.closeCurrent(); err != nil {
		return err
	}
	last, err := r.lastSeq(r.day)
	if err != nil {
		return err
	}
	return r.open(max(last, r.seq)+1, true)
}

// lastSeq returns the highest sequence number in use for day, or -1.
func (r *RotatingFile) lastSeq(day string) (int, error) {
	last := -1
	for seq := 0; ; seq++ {
		path := r.fileName(day, seq)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return last, nil
		}
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		last = seq
	}
}

func (r *RotatingFile) open(seq int, rotated bool) error {
	path := r.fileName(r.day, seq)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", path, err)
	}

	r.f, r.path, r.seq, r.size = f, path, seq, fi.Size()
	r.opened = true
	if rotated && r.OnRotate != nil {
		r.OnRotate(path)
	}
	return nil
}

func (r *RotatingFile) closeCurrent() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	return nil
}
