// Package refresh runs a caller-supplied task on a fixed period in the
// background. It is what keeps cached aggregates fresh without putting any
// recomputation on the read path.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/atomic"
)

// Task is one refresh run. ctx is cancelled when the schedule is stopped.
type Task func(ctx context.Context) error

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("refresh interval must be positive")

// Stats counts scheduler runs over its whole lifetime.
type Stats struct {
	Runs     uint64 `json:"runs"`
	Failures uint64 `json:"failures"`
}

/*
Scheduler owns at most one background goroutine.

- Construction starts nothing; Start launches the goroutine
- The first run happens one interval after Start
- A run that returns an error or panics is logged and counted; the schedule continues
- Stop cancels immediately. A run in flight sees its context cancelled, and
  Stop does not wait for it to return
*/
type Scheduler struct {
	name   string
	logger log.Logger

	// OnRun and OnFailure are optional hooks, called from the scheduler
	// goroutine. Set them before Start.
	OnRun     func()
	OnFailure func(error)

	runs     atomic.Uint64
	failures atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler. name is only used in logs.
func NewScheduler(name string, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scheduler{
		name:   name,
		logger: log.With(logger, "component", "refresh", "scheduler", name),
	}
}

// Start begins running task every interval. Starting a running scheduler
// replaces the previous schedule.
func (s *Scheduler) Start(interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if task == nil {
		return errors.New("refresh task is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.loop(ctx, interval, task)

	level.Debug(s.logger).Log("msg", "refresh schedule started", "interval", interval)
	return nil
}

// Stop cancels the schedule. It is a no-op when nothing is scheduled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	level.Debug(s.logger).Log("msg", "refresh schedule stopped")
}

// Running reports whether a schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stats returns lifetime run and failure counts.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Runs:     s.runs.Load(),
		Failures: s.failures.Load(),
	}
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, task Task) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick can race with Stop; don't start a run after cancellation.
			if ctx.Err() != nil {
				return
			}
			s.run(ctx, task)
		}
	}
}

// run executes one task with panic recovery so that one bad run cannot kill
// the schedule.
func (s *Scheduler) run(ctx context.Context, task Task) {
	s.runs.Inc()
	if s.OnRun != nil {
		s.OnRun()
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in refresh task: %v", r)
			}
		}()
		return task(ctx)
	}()
	if err == nil {
		return
	}

	s.failures.Inc()
	if s.OnFailure != nil {
		s.OnFailure(err)
	}
	level.Warn(s.logger).Log("msg", "refresh task failed", "err", err)
}
