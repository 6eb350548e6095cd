// Package tasks holds the priority queue of follow-up work created from
// domain events.
package tasks

import (
	"maps"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// Priority orders tasks in the queue; see Rank.
type Priority string

const (
	PriorityImmediate Priority = "immediate"
	PriorityHigh      Priority = "high"
	PriorityMedium    Priority = "medium"
	PriorityLow       Priority = "low"
)

// Rank is immediate 3, high 2, medium 1, low and unknown 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityImmediate:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Status represents the lifecycle state of a Task. Completed and failed are
// terminal; failed tasks are not retried.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is a deferred unit of follow-up work.
type Task struct {
	ID          types.TaskID   `json:"id"`
	Type        string         `json:"type"`
	Payload     map[string]any `json:"payload"`
	Priority    Priority       `json:"priority"`
	Status      Status         `json:"status"`
	Source      string         `json:"source,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	FailedAt    *time.Time     `json:"failedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// New creates a pending task.
func New(taskType string, priority Priority, payload map[string]any) Task {
	return Task{
		Type:     taskType,
		Priority: priority,
		Payload:  payload,
		Status:   StatusPending,
	}
}

func (t *Task) clone() *Task {
	c := *t
	c.Payload = maps.Clone(t.Payload)
	return &c
}
