// Package events is the in-process publish/subscribe bus with a bounded
// history of recent events.
package events

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// DefaultHistorySize is the number of events kept when NewBus is given no size.
const DefaultHistorySize = 100

// Handler receives an event. A returned error is logged and does not affect
// other handlers or the emitter.
type Handler func(ctx context.Context, ev types.Event) error

type listener struct {
	id      uint64
	handler Handler
}

// Subscription identifies one registered handler.
type Subscription struct {
	bus       *Bus
	eventType string
	id        uint64
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Off(s.eventType, s)
	}
}

// Bus dispatches events synchronously to handlers in subscription order.
type Bus struct {
	mu          sync.RWMutex
	listeners   map[string][]listener
	nextID      uint64
	history     []types.Event // oldest first
	historySize int
	now         func() time.Time
}

func NewBus(historySize int) *Bus {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Bus{
		listeners:   make(map[string][]listener),
		historySize: historySize,
		now:         time.Now,
	}
}

// On registers h for eventType, or for every type when eventType is Wildcard.
func (b *Bus) On(eventType string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[eventType] = append(b.listeners[eventType], listener{id: b.nextID, handler: h})
	return Subscription{bus: b, eventType: eventType, id: b.nextID}
}

// Off removes the given subscriptions for eventType, or all of the type's
// handlers when none are given.
func (b *Bus) Off(eventType string, subs ...Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(subs) == 0 {
		delete(b.listeners, eventType)
		return
	}
	remaining := b.listeners[eventType][:0:0]
	for _, l := range b.listeners[eventType] {
		if !slices.ContainsFunc(subs, func(s Subscription) bool { return s.id == l.id }) {
			remaining = append(remaining, l)
		}
	}
	if len(remaining) == 0 {
		delete(b.listeners, eventType)
		return
	}
	b.listeners[eventType] = remaining
}

type dispatchChainKey struct{}

func dispatchChain(ctx context.Context) []string {
	chain, _ := ctx.Value(dispatchChainKey{}).([]string)
	return chain
}

// Emit records an event and runs its handlers before returning. An event
// emitted from inside a handler whose dispatch chain already contains the same
// type is recorded but not dispatched, which breaks emit cycles.
func (b *Bus) Emit(ctx context.Context, eventType, source string, payload map[string]any) types.Event {
	if ctx == nil {
		ctx = context.Background()
	}
	ev := types.Event{
		ID:        types.NewEventID(),
		Type:      eventType,
		Source:    source,
		Timestamp: b.now(),
		Payload:   maps.Clone(payload),
	}
	if ev.Payload == nil {
		ev.Payload = map[string]any{}
	}

	b.mu.Lock()
	b.history = append(b.history, ev)
	if over := len(b.history) - b.historySize; over > 0 {
		b.history = slices.Delete(b.history, 0, over)
	}
	targets := append(slices.Clone(b.listeners[eventType]), b.listeners[Wildcard]...)
	b.mu.Unlock()

	chain := dispatchChain(ctx)
	if slices.Contains(chain, eventType) {
		slog.Warn("event cycle detected, skipping dispatch", "event_type", eventType, "chain", chain)
		return ev
	}
	if len(targets) == 0 {
		return ev
	}

	slices.SortFunc(targets, func(a, b listener) int { return cmp.Compare(a.id, b.id) })
	dctx := context.WithValue(ctx, dispatchChainKey{}, append(slices.Clone(chain), eventType))
	for _, l := range targets {
		b.invoke(dctx, l, ev)
	}
	return ev
}

func (b *Bus) invoke(ctx context.Context, l listener, ev types.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "event_type", ev.Type, "event_id", string(ev.ID), "error", fmt.Sprint(r))
		}
	}()
	// Handlers get their own payload copy.
	ev.Payload = maps.Clone(ev.Payload)
	if err := l.handler(ctx, ev); err != nil {
		slog.Error("event handler failed", "event_type", ev.Type, "event_id", string(ev.ID), "error", err)
	}
}

// RecentEvents returns up to n events, most recent first. n <= 0 returns all.
func (b *Bus) RecentEvents(n int) []types.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.history) {
		n = len(b.history)
	}
	out := make([]types.Event, 0, n)
	for i := len(b.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, b.history[i])
	}
	return out
}

// EventsByType returns retained events of one type, most recent first.
func (b *Bus) EventsByType(eventType string) []types.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []types.Event
	for i := len(b.history) - 1; i >= 0; i-- {
		if b.history[i].Type == eventType {
			out = append(out, b.history[i])
		}
	}
	return out
}

func (b *Bus) ListenerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

func (b *Bus) ClearListeners() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string][]listener)
}

func (b *Bus) ClearHistory() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

var _ types.Publisher = (*Bus)(nil)
