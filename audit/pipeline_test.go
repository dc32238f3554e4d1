package audit

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSink records entries and fails those whose description starts with "fail".
type memSink struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

func (s *memSink) Write(e Entry) error {
	if strings.HasPrefix(e.Description, "fail") {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return descriptions(s.entries)
}

// blockingSink holds the first write until release is closed.
type blockingSink struct {
	memSink
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *blockingSink) Write(e Entry) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.memSink.Write(e)
}

func newTestPipeline(t *testing.T, sink Sink, reg prometheus.Registerer) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Config{HistorySize: 100}, sink, log.NewNopLogger(), reg)
	require.NoError(t, err)
	return p
}

func TestPipelineWritesInOrder(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(Config{Dir: dir}, log.NewNopLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	p.Log(AddStudent, "e1", time.Millisecond, true)
	p.Log(RecordGrade, "e2", 2*time.Millisecond, true)
	p.Log(FindStudent, "e3", 3*time.Millisecond, false)

	require.Eventually(t, func() bool { return p.Stats().Written == 3 }, 2*time.Second, time.Millisecond)
	require.Zero(t, p.Stop())

	rf := p.sink.(*RotatingFile)
	lines := readLines(t, rf.Path())
	require.Len(t, lines, 3)

	history := p.Recent(3)
	for i, want := range []string{"e1", "e2", "e3"} {
		assert.True(t, strings.HasSuffix(lines[i], "| "+want), lines[i])
		assert.Equal(t, history[i].Line(), lines[i], "file lines must match logged entries byte for byte")
	}
}

func TestPipelineConcurrentProducersKeepPerCallerOrder(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(t, sink, nil)
	require.NoError(t, p.Start())

	const producers, perProducer = 4, 50
	var wg sync.WaitGroup
	for g := 0; g < producers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				p.LogAs(fmt.Sprintf("p%d", g), Search, fmt.Sprintf("p%d-%03d", g, i), 0, true)
			}
		}(g)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return p.Stats().Written == producers*perProducer }, 2*time.Second, time.Millisecond)
	p.Stop()

	last := map[string]string{}
	for _, d := range sink.written() {
		caller := strings.SplitN(d, "-", 2)[0]
		assert.Greater(t, d, last[caller])
		last[caller] = d
	}
}

func TestLogNeverBlocksWithoutWriter(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(t, sink, nil)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		p.Log(BulkImport, fmt.Sprintf("row %d", i), 0, true)
	}
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, 1000, p.Depth())
	assert.Equal(t, 1000, p.Stop())
	assert.Empty(t, sink.written())
	assert.True(t, sink.closed)
	assert.Equal(t, uint64(1000), p.Stats().Discarded)
}

func TestWriteFailureDropsEntryAndContinues(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := &memSink{}
	p := newTestPipeline(t, sink, reg)
	require.NoError(t, p.Start())

	p.Log(AddStudent, "ok-1", 0, true)
	p.Log(AddStudent, "fail-2", 0, true)
	p.Log(AddStudent, "ok-3", 0, true)

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Written+s.Failed == 3
	}, 2*time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, []string{"ok-1", "ok-3"}, sink.written())
	s := p.Stats()
	assert.Equal(t, uint64(2), s.Written)
	assert.Equal(t, uint64(1), s.Failed)
	assert.Equal(t, float64(1), testutil.ToFloat64(p.metrics.writeFailures))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.metrics.logged))

	// Failed entries stay queryable.
	assert.Len(t, p.Recent(10), 3)
}

func TestStopDiscardsQueuedEntries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := newBlockingSink()
	p := newTestPipeline(t, sink, reg)
	require.NoError(t, p.Start())

	for i := 1; i <= 5; i++ {
		p.Log(RecordGrade, fmt.Sprintf("e%d", i), 0, true)
	}
	<-sink.entered

	stopped := make(chan int)
	go func() { stopped <- p.Stop() }()

	// Stop cancels first, then waits for the write in progress.
	time.Sleep(20 * time.Millisecond)
	close(sink.release)

	select {
	case n := <-stopped:
		assert.Equal(t, 4, n)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.Equal(t, []string{"e1"}, sink.written())
	assert.True(t, sink.closed)
	assert.Equal(t, float64(4), testutil.ToFloat64(p.metrics.discarded))
	assert.Equal(t, float64(0), testutil.ToFloat64(p.metrics.queueDepth))

	// Logging after Stop is still safe and is counted as discarded.
	p.Log(RecordGrade, "late", 0, true)
	assert.Equal(t, uint64(5), p.Stats().Discarded)
	assert.Equal(t, 0, p.Depth())
}

func TestLogRacingStopIsAlwaysAccounted(t *testing.T) {
	for round := 0; round < 20; round++ {
		reg := prometheus.NewRegistry()
		p := newTestPipeline(t, &memSink{}, reg)
		require.NoError(t, p.Start())

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					p.Log(Search, "x", 0, true)
				}
			}()
		}
		time.Sleep(time.Millisecond)
		p.Stop()
		wg.Wait()

		s := p.Stats()
		require.Equal(t, 0, s.Depth)
		require.Equal(t, s.Logged, s.Written+s.Failed+s.Discarded)
		require.Equal(t, float64(s.Discarded), testutil.ToFloat64(p.metrics.discarded))
	}
}

func TestPipelineLifecycle(t *testing.T) {
	p := newTestPipeline(t, &memSink{}, nil)

	require.NoError(t, p.Start())
	require.ErrorIs(t, p.Start(), ErrAlreadyStarted)

	p.Stop()
	assert.Zero(t, p.Stop())
	require.ErrorIs(t, p.Start(), ErrStopped)
}

func TestLogRecordsCallerIdentity(t *testing.T) {
	p := newTestPipeline(t, &memSink{}, nil)
	defer p.Stop()

	p.Log(ViewGrades, "mine", 0, true)
	p.LogAs("menu", ViewGrades, "theirs", -time.Second, true)

	got := p.Recent(2)
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0].Caller, "goroutine-"), got[0].Caller)
	assert.Equal(t, "menu", got[1].Caller)
	assert.Zero(t, got[1].Duration)

	assert.Len(t, p.ByThread(strings.ToUpper(got[0].Caller)), 1)
}

func TestPipelineStatisticsCountsEveryLog(t *testing.T) {
	p, err := NewPipeline(Config{HistorySize: 2}, &memSink{}, nil, nil)
	require.NoError(t, err)
	defer p.Stop()

	p.Log(AddStudent, "a", 0, true)
	p.Log(AddStudent, "b", 0, true)
	p.Log(Search, "c", 0, true)

	s := p.Statistics()
	assert.Equal(t, 2, s.TotalOps)
	assert.Equal(t, uint64(3), s.TotalLogged)
	assert.Equal(t, 1, s.CountsByOperation[AddStudent])
	assert.Equal(t, 1, s.CountsByOperation[Search])
}

func TestPipelineCountsRotations(t *testing.T) {
	reg := prometheus.NewRegistry()
	lineLen := int64(len(testEntry("e1").Line()) + 1)
	rf, err := NewRotatingFile(t.TempDir(), "audit", lineLen)
	require.NoError(t, err)

	p := newTestPipeline(t, rf, reg)
	require.NoError(t, p.Start())
	for i := 0; i < 3; i++ {
		p.Log(Search, "x", 0, true)
	}
	require.Eventually(t, func() bool { return p.Stats().Written == 3 }, 2*time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, uint64(2), p.Stats().Rotations)
	assert.Equal(t, float64(2), testutil.ToFloat64(p.metrics.rotations))
}

func TestNewPipelineValidates(t *testing.T) {
	_, err := NewPipeline(Config{MaxFileBytes: -1}, &memSink{}, nil, nil)
	require.Error(t, err)

	_, err = NewPipeline(Config{}, nil, nil, nil)
	require.Error(t, err)

	_, err = Open(Config{Dir: t.TempDir(), FilePrefix: "a/b"}, nil, nil)
	require.Error(t, err)
}
