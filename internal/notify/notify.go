// Package notify fans toasts out to every registered sink.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// DefaultHistory is how many delivered toasts a Fanout remembers.
const DefaultHistory = 50

// Sink delivers one toast to one destination.
type Sink func(ctx context.Context, toast types.Toast) error

// Entry is a toast as it was delivered.
type Entry struct {
	types.Toast
	At time.Time `json:"at"`
}

// Fanout delivers each toast to all registered sinks in registration order
// and keeps a short history of what it delivered.
type Fanout struct {
	mu      sync.RWMutex
	names   []string
	sinks   map[string]Sink
	history []Entry
	limit   int
	now     func() time.Time
}

// NewFanout creates a Fanout remembering up to history toasts
// (DefaultHistory when <= 0).
func NewFanout(history int) *Fanout {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Fanout{sinks: make(map[string]Sink), limit: history, now: time.Now}
}

// Register adds or replaces the sink called name.
func (f *Fanout) Register(name string, sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sinks[name]; !ok {
		f.names = append(f.names, name)
	}
	f.sinks[name] = sink
}

func (f *Fanout) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sinks, name)
	f.names = slices.DeleteFunc(f.names, func(n string) bool { return n == name })
}

// Sinks lists the registered sink names.
func (f *Fanout) Sinks() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.names)
}

// Notify delivers toast to every sink. A failing sink does not stop the
// others; all failures are joined into the returned error.
func (f *Fanout) Notify(ctx context.Context, toast types.Toast) error {
	f.mu.Lock()
	f.history = append(f.history, Entry{Toast: toast, At: f.now()})
	if over := len(f.history) - f.limit; over > 0 {
		f.history = slices.Delete(f.history, 0, over)
	}
	names := slices.Clone(f.names)
	sinks := make([]Sink, len(names))
	for i, n := range names {
		sinks[i] = f.sinks[n]
	}
	f.mu.Unlock()

	var errs []error
	for i, sink := range sinks {
		if err := sink(ctx, toast); err != nil {
			slog.Warn("toast delivery failed", "sink", names[i], "title", toast.Title, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}

// Recent returns up to n delivered toasts, most recent first. n <= 0 returns
// all of them.
func (f *Fanout) Recent(n int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n <= 0 || n > len(f.history) {
		n = len(f.history)
	}
	out := make([]Entry, 0, n)
	for i := len(f.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.history[i])
	}
	return out
}

// LogSink writes toasts to the process logger.
func LogSink(ctx context.Context, toast types.Toast) error {
	level := slog.LevelInfo
	switch toast.Type {
	case types.ToastWarning:
		level = slog.LevelWarn
	case types.ToastError:
		level = slog.LevelError
	}
	slog.Log(ctx, level, "toast", "type", toast.Type, "title", toast.Title, "message", toast.Message)
	return nil
}

var _ types.Notifier = (*Fanout)(nil)
