package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := newQueue()
	for _, d := range []string{"e1", "e2", "e3"} {
		require.True(t, q.push(Entry{Description: d}))
	}

	ctx := context.Background()
	for _, want := range []string{"e1", "e2", "e3"} {
		e, ok := q.pop(ctx)
		require.True(t, ok)
		assert.Equal(t, want, e.Description)
	}
	assert.Zero(t, q.len())
}

func TestQueuePopUnblocksOnCancel(t *testing.T) {
	q := newQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.pop(ctx)
	assert.False(t, ok)
}

func TestQueueCloseRefusesPushes(t *testing.T) {
	q := newQueue()
	q.push(Entry{Description: "queued"})

	assert.Equal(t, 1, q.close())
	assert.False(t, q.push(Entry{Description: "late"}))
	assert.Zero(t, q.len())
	assert.Zero(t, q.close())
}
