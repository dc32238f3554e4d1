package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestSchedulerRunsPeriodically(t *testing.T) {
	s := NewScheduler("test", log.NewNopLogger())
	var calls atomic.Int64

	require.NoError(t, s.Start(10*time.Millisecond, func(context.Context) error {
		calls.Inc()
		return nil
	}))
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
	assert.GreaterOrEqual(t, s.Stats().Runs, uint64(3))
}

func TestSchedulerFirstRunWaitsOneInterval(t *testing.T) {
	s := NewScheduler("test", nil)
	var calls atomic.Int64

	require.NoError(t, s.Start(time.Hour, func(context.Context) error {
		calls.Inc()
		return nil
	}))
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), calls.Load())
}

func TestSchedulerSurvivesFailuresAndPanics(t *testing.T) {
	s := NewScheduler("test", log.NewNopLogger())
	var calls, failures atomic.Int64
	s.OnFailure = func(error) { failures.Inc() }

	require.NoError(t, s.Start(5*time.Millisecond, func(context.Context) error {
		n := calls.Inc()
		switch n {
		case 1:
			return errors.New("boom")
		case 2:
			panic("kaboom")
		}
		return nil
	}))
	defer s.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), failures.Load())
	assert.Equal(t, uint64(2), s.Stats().Failures)
}

func TestSchedulerStopCancelsInFlightRun(t *testing.T) {
	s := NewScheduler("test", log.NewNopLogger())
	started := make(chan struct{})
	cancelled := make(chan struct{})
	var once atomic.Bool

	require.NoError(t, s.Start(5*time.Millisecond, func(ctx context.Context) error {
		if !once.CompareAndSwap(false, true) {
			return nil
		}
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}))

	<-started
	s.Stop()
	assert.False(t, s.Running())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight run was not cancelled")
	}
}

func TestSchedulerStopHaltsRuns(t *testing.T) {
	s := NewScheduler("test", log.NewNopLogger())
	var calls atomic.Int64

	require.NoError(t, s.Start(5*time.Millisecond, func(context.Context) error {
		calls.Inc()
		return nil
	}))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	// Let a run that raced with Stop finish.
	time.Sleep(20 * time.Millisecond)
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	s.Stop() // no-op
}

func TestSchedulerRejectsBadInput(t *testing.T) {
	s := NewScheduler("test", nil)
	require.ErrorIs(t, s.Start(0, func(context.Context) error { return nil }), ErrInvalidInterval)
	require.Error(t, s.Start(time.Second, nil))
	assert.False(t, s.Running())
}
