// Package audit records completed business operations. Log only enqueues;
// one writer goroutine persists entries in order to a rotating file, and a
// bounded in-memory history serves queries.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/timandy/routine"
	"go.uber.org/atomic"
)

var (
	ErrAlreadyStarted = errors.New("audit pipeline already started")
	ErrStopped        = errors.New("audit pipeline stopped")
)

// Stats are lifetime counters of a pipeline.
type Stats struct {
	Logged    uint64 `json:"logged"`
	Written   uint64 `json:"written"`
	Failed    uint64 `json:"failed"`
	Discarded uint64 `json:"discarded"`
	Rotations uint64 `json:"rotations"`
	Depth     int    `json:"depth"`
}

/*
Pipeline decouples callers from log I/O.

- Log never blocks: the queue is unbounded
- Entries are written in the order they were logged, by one goroutine
- A failed write is logged and counted and the entry is dropped
- Stop is not a drain: whatever is still queued is discarded and counted
*/
type Pipeline struct {
	sink    Sink
	logger  log.Logger
	metrics *pipelineMetrics

	queue   *queue
	history *History

	clock func() time.Time

	logged    atomic.Uint64
	written   atomic.Uint64
	failed    atomic.Uint64
	discarded atomic.Uint64
	rotations atomic.Uint64
	stopped   atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Open builds a pipeline writing to a RotatingFile configured by cfg.
func Open(cfg Config, logger log.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit config: %w", err)
	}
	sink, err := NewRotatingFile(cfg.Dir, cfg.FilePrefix, cfg.MaxFileBytes)
	if err != nil {
		return nil, err
	}
	return NewPipeline(cfg, sink, logger, reg)
}

// NewPipeline builds a pipeline around sink. Nothing runs until Start.
// reg may be nil.
func NewPipeline(cfg Config, sink Sink, logger log.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audit config: %w", err)
	}
	if sink == nil {
		return nil, errors.New("audit sink is nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	p := &Pipeline{
		sink:    sink,
		logger:  log.With(logger, "component", "audit"),
		queue:   newQueue(),
		history: NewHistory(cfg.HistorySize),
		clock:   time.Now,
	}
	p.metrics = newPipelineMetrics(reg, func() float64 { return float64(p.queue.len()) })

	if rf, ok := sink.(*RotatingFile); ok && rf.OnRotate == nil {
		rf.OnRotate = p.rotated
	}
	return p, nil
}

// Start launches the writer goroutine. A pipeline starts at most once.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Load() {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.started = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)

	level.Debug(p.logger).Log("msg", "audit writer started")
	return nil
}

/*
Stop halts the writer and closes the sink. It waits only for a write already
in progress, then discards everything still queued and returns how many
entries were lost. Calling Stop again returns 0.
*/
func (p *Pipeline) Stop() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped.Swap(true) {
		return 0
	}
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}

	n := p.queue.close()
	p.discard(n)

	if err := p.sink.Close(); err != nil {
		level.Warn(p.logger).Log("msg", "closing audit sink", "err", err)
	}
	if n > 0 {
		level.Warn(p.logger).Log("msg", "audit entries discarded at shutdown", "count", n)
	}
	level.Debug(p.logger).Log("msg", "audit writer stopped")
	return n
}

// Log records an operation performed by the calling goroutine.
func (p *Pipeline) Log(kind OperationKind, description string, d time.Duration, success bool) {
	p.LogAs(fmt.Sprintf("goroutine-%d", routine.Goid()), kind, description, d, success)
}

// LogAs records an operation on behalf of an explicit caller identity.
func (p *Pipeline) LogAs(caller string, kind OperationKind, description string, d time.Duration, success bool) {
	if d < 0 {
		d = 0
	}
	e := Entry{
		Timestamp:   p.clock().UTC(),
		Caller:      caller,
		Operation:   kind,
		Description: description,
		Duration:    d,
		Success:     success,
	}

	p.history.Add(e)
	p.logged.Inc()
	p.metrics.logged.Inc()

	if !p.queue.push(e) {
		p.discard(1)
	}
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	for {
		e, ok := p.queue.pop(ctx)
		if !ok {
			return
		}
		p.write(e)
	}
}

func (p *Pipeline) write(e Entry) {
	if err := p.sink.Write(e); err != nil {
		p.failed.Inc()
		p.metrics.writeFailures.Inc()
		level.Error(p.logger).Log("msg", "audit write failed, entry dropped", "op", e.Operation, "err", err)
		return
	}
	p.written.Inc()
	p.metrics.written.Inc()
}

func (p *Pipeline) rotated(path string) {
	p.rotations.Inc()
	p.metrics.rotations.Inc()
	level.Info(p.logger).Log("msg", "audit log rotated", "path", path)
}

func (p *Pipeline) discard(n int) {
	if n <= 0 {
		return
	}
	p.discarded.Add(uint64(n))
	p.metrics.discarded.Add(float64(n))
}

// Depth returns the number of entries waiting for the writer.
func (p *Pipeline) Depth() int {
	return p.queue.len()
}

// Stats returns the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Logged:    p.logged.Load(),
		Written:   p.written.Load(),
		Failed:    p.failed.Load(),
		Discarded: p.discarded.Load(),
		Rotations: p.rotations.Load(),
		Depth:     p.queue.len(),
	}
}

// History returns the retained entries backing the queries.
func (p *Pipeline) History() *History {
	return p.history
}

// Recent returns the last limit retained entries, oldest first.
func (p *Pipeline) Recent(limit int) []Entry {
	return p.history.Recent(limit)
}

// ByOperation returns the retained entries of one kind.
func (p *Pipeline) ByOperation(kind OperationKind) []Entry {
	return p.history.ByOperation(kind)
}

// ByThread returns the retained entries logged by caller id, ignoring case.
func (p *Pipeline) ByThread(id string) []Entry {
	return p.history.ByThread(id)
}

// ByDateRange returns the retained entries logged between the UTC days of
// start and end, both included.
func (p *Pipeline) ByDateRange(start, end time.Time) []Entry {
	return p.history.ByDateRange(start, end)
}

// Statistics summarizes the retained entries; TotalLogged covers every Log call.
func (p *Pipeline) Statistics() Statistics {
	s := p.history.Statistics()
	s.TotalLogged = p.logged.Load()
	return s
}
