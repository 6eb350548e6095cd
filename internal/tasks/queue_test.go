package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesByPriority(t *testing.T) {
	var order []Priority
	queue := NewQueue(func(ctx context.Context, task *Task) error {
		order = append(order, task.Priority)
		return nil
	})

	for _, p := range []Priority{PriorityLow, PriorityImmediate, PriorityMedium, PriorityHigh} {
		queue.Add(New("noop", p, nil))
	}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := queue.ProcessNext(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, []Priority{PriorityImmediate, PriorityHigh, PriorityMedium, PriorityLow}, order)
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	var seen []string
	queue := NewQueue(func(ctx context.Context, task *Task) error {
		seen = append(seen, task.Payload["name"].(string))
		return nil
	})

	queue.Add(New("t", PriorityHigh, map[string]any{"name": "h1"}))
	queue.Add(New("t", PriorityMedium, map[string]any{"name": "m1"}))
	queue.Add(New("t", PriorityHigh, map[string]any{"name": "h2"}))
	queue.Add(New("t", PriorityMedium, map[string]any{"name": "m2"}))
	queue.Add(New("t", PriorityHigh, map[string]any{"name": "h3"}))

	require.Equal(t, 5, queue.Drain(context.Background(), 0))
	assert.Equal(t, []string{"h1", "h2", "h3", "m1", "m2"}, seen)
}

func TestQueueAddDefaults(t *testing.T) {
	queue := NewQueue(nil)
	task := queue.Add(Task{Type: "noop"})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestQueueProcessNextEmpty(t *testing.T) {
	queue := NewQueue(nil)
	task, err := queue.ProcessNext(context.Background())
	assert.Nil(t, task)
	assert.NoError(t, err)
}

func TestQueueFailureIsTerminal(t *testing.T) {
	calls := 0
	queue := NewQueue(func(ctx context.Context, task *Task) error {
		calls++
		if task.Type == "bad" {
			return errors.New("ticket store unavailable")
		}
		return nil
	})
	bad := queue.Add(New("bad", PriorityHigh, nil))
	queue.Add(New("good", PriorityLow, nil))

	done, err := queue.ProcessNext(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "ticket store unavailable", done.Error)
	assert.NotNil(t, done.FailedAt)

	// the queue moves on and does not retry
	queue.Drain(context.Background(), 0)
	assert.Equal(t, 2, calls)
	got, ok := queue.Get(bad.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	counts := queue.Counts()
	assert.Equal(t, 1, counts[StatusCompleted])
	assert.Equal(t, 1, counts[StatusFailed])
}

func TestQueueRecoversExecutorPanic(t *testing.T) {
	queue := NewQueue(func(ctx context.Context, task *Task) error {
		panic("nil ticket")
	})
	queue.Add(New("boom", PriorityLow, nil))

	done, err := queue.ProcessNext(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, done.Status)
}

func TestQueueMarksProcessingDuringExecution(t *testing.T) {
	var queue *Queue
	queue = NewQueue(func(ctx context.Context, task *Task) error {
		got, _ := queue.Get(task.ID)
		assert.Equal(t, StatusProcessing, got.Status)
		assert.NotNil(t, got.StartedAt)
		return nil
	})
	queue.Add(New("noop", PriorityLow, nil))
	done, _ := queue.ProcessNext(context.Background())
	assert.Equal(t, StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
}

func TestQueueConcurrentProcessNextRunsEachOnce(t *testing.T) {
	var runs sync.Map
	var dup atomic.Bool
	queue := NewQueue(func(ctx context.Context, task *Task) error {
		if _, loaded := runs.LoadOrStore(task.ID, true); loaded {
			dup.Store(true)
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	for i := 0; i < 20; i++ {
		queue.Add(New("noop", PriorityMedium, nil))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.Drain(context.Background(), 0)
		}()
	}
	wg.Wait()

	assert.False(t, dup.Load(), "a task was executed twice")
	assert.Equal(t, 20, queue.Counts()[StatusCompleted])
	assert.True(t, queue.WaitIdle(time.Second))
}

func TestQueueCleanup(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	queue := NewQueue(nil)
	queue.now = func() time.Time { return clock }

	queue.Add(New("old-done", PriorityHigh, nil))
	queue.Add(New("old-pending", PriorityLow, nil))
	queue.ProcessNext(context.Background())

	clock = clock.Add(25 * time.Hour)
	queue.Add(New("fresh", PriorityLow, nil))
	queue.ProcessNext(context.Background()) // old-pending

	require.Equal(t, 2, queue.Cleanup(24*time.Hour))
	left := queue.List()
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Type)
}

func TestQueueClearKeepsNothingPending(t *testing.T) {
	queue := NewQueue(nil)
	queue.Add(New("a", PriorityLow, nil))
	queue.Add(New("b", PriorityLow, nil))
	queue.Clear()
	assert.Empty(t, queue.Pending())
}

func TestQueueReturnsCopies(t *testing.T) {
	queue := NewQueue(nil)
	added := queue.Add(New("a", PriorityLow, map[string]any{"k": "v"}))
	added.Payload["k"] = "changed"

	got, _ := queue.Get(added.ID)
	assert.Equal(t, "v", got.Payload["k"])
}
