package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// Executor performs a task. It receives a copy; status bookkeeping is the
// queue's job.
type Executor func(ctx context.Context, task *Task) error

// Queue keeps tasks ordered by priority rank, FIFO within a rank. Finished
// tasks stay in the queue with their terminal status until Cleanup removes
// them. The queue never processes on its own; callers drive it through
// ProcessNext or Drain.
type Queue struct {
	mu       sync.Mutex
	tasks    []*Task
	executor Executor
	active   atomic.Int64
	now      func() time.Time
}

// NewQueue creates a Queue that runs tasks through exec.
func NewQueue(exec Executor) *Queue {
	return &Queue{executor: exec, now: time.Now}
}

// SetExecutor replaces the function invoked for each processed task.
func (q *Queue) SetExecutor(exec Executor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.executor = exec
}

// Add assigns an ID and defaults (pending, medium) and inserts the task in
// priority order. It returns the stored task.
func (q *Queue) Add(t Task) Task {
	stored := t.clone()
	if stored.ID == "" {
		stored.ID = types.NewTaskID()
	}
	if stored.Status == "" {
		stored.Status = StatusPending
	}
	if stored.Priority == "" {
		stored.Priority = PriorityMedium
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = q.now()
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, stored)
	slices.SortStableFunc(q.tasks, func(a, b *Task) int {
		return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
	})
	q.mu.Unlock()

	slog.Debug("task queued", "task_id", string(stored.ID), "type", stored.Type, "priority", stored.Priority)
	return *stored.clone()
}

// ProcessNext runs the highest-priority pending task to completion. It
// returns nil, nil when nothing is pending. A failing executor marks the
// task failed and its error is returned alongside the task.
func (q *Queue) ProcessNext(ctx context.Context) (*Task, error) {
	q.mu.Lock()
	idx := slices.IndexFunc(q.tasks, func(t *Task) bool { return t.Status == StatusPending })
	if idx < 0 {
		q.mu.Unlock()
		return nil, nil
	}
	task := q.tasks[idx]
	started := q.now()
	task.Status = StatusProcessing
	task.StartedAt = &started
	exec := q.executor
	work := task.clone()
	q.mu.Unlock()

	q.active.Add(1)
	err := q.run(ctx, exec, work)
	q.active.Add(-1)

	q.mu.Lock()
	finished := q.now()
	if err != nil {
		task.Status = StatusFailed
		task.FailedAt = &finished
		task.Error = err.Error()
		slog.Error("task failed", "task_id", string(task.ID), "type", task.Type, "error", err)
	} else {
		task.Status = StatusCompleted
		task.CompletedAt = &finished
		slog.Debug("task completed", "task_id", string(task.ID), "type", task.Type)
	}
	out := task.clone()
	q.mu.Unlock()
	return out, err
}

func (q *Queue) run(ctx context.Context, exec Executor, t *Task) (err error) {
	if exec == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return exec(ctx, t)
}

// Drain processes pending tasks until none remain, limit tasks have run
// (limit <= 0 means no limit) or ctx is done. It returns how many ran.
func (q *Queue) Drain(ctx context.Context, limit int) int {
	n := 0
	for limit <= 0 || n < limit {
		if ctx.Err() != nil {
			return n
		}
		task, _ := q.ProcessNext(ctx)
		if task == nil {
			return n
		}
		n++
	}
	return n
}

// WaitIdle blocks until no task is executing, or the timeout expires.
// Returns true if idle, false if timed out.
func (q *Queue) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if q.active.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// List returns copies of all tasks in queue order.
func (q *Queue) List() []Task {
	return q.filter(func(*Task) bool { return true })
}

// Pending returns copies of pending tasks in the order they will run.
func (q *Queue) Pending() []Task {
	return q.filter(func(t *Task) bool { return t.Status == StatusPending })
}

func (q *Queue) filter(keep func(*Task) bool) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if keep(t) {
			out = append(out, *t.clone())
		}
	}
	return out
}

func (q *Queue) Get(id types.TaskID) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.tasks {
		if t.ID == id {
			return *t.clone(), true
		}
	}
	return Task{}, false
}

// Counts tallies tasks by status.
func (q *Queue) Counts() map[Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[Status]int, 4)
	for _, t := range q.tasks {
		out[t.Status]++
	}
	return out
}

// Cleanup drops completed and failed tasks created more than maxAge ago and
// returns how many were removed.
func (q *Queue) Cleanup(maxAge time.Duration) int {
	cutoff := q.now().Add(-maxAge)
	q.mu.Lock()
	defer q.mu.Unlock()
	before := len(q.tasks)
	q.tasks = slices.DeleteFunc(q.tasks, func(t *Task) bool {
		return t.Status.Terminal() && t.CreatedAt.Before(cutoff)
	})
	return before - len(q.tasks)
}

// Clear drops every task that is not currently executing.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = slices.DeleteFunc(q.tasks, func(t *Task) bool { return t.Status != StatusProcessing })
}
