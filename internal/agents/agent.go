// Package agents implements the lead, support and supply agents and the
// registry that owns their lifecycle.
package agents

import (
	"context"
	"log/slog"
	"sync"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

// Agent is the lifecycle and reporting surface shared by every agent.
// Start and Stop are idempotent.
type Agent interface {
	Name() string
	Start() error
	Stop()
	IsActive() bool
	Stats() Stats
}

// Stats is an agent's reporting snapshot. Fields an agent does not track
// stay zero.
type Stats struct {
	Name       string  `json:"name"`
	Active     bool    `json:"active"`
	Processed  int     `json:"processed"`
	Qualified  int     `json:"qualified"`
	AvgScore   int     `json:"avgScore"`
	Resolved   int     `json:"resolved"`
	Monitored  int     `json:"monitored"`
	Alerts     int     `json:"alerts"`
	Efficiency int     `json:"efficiency"`
	AvgCSAT    float64 `json:"avgCsat"`
}

// Bus is what agents need from the event bus: emit and subscribe.
type Bus interface {
	types.Publisher
	On(eventType string, h events.Handler) events.Subscription
}

type subscription struct {
	eventType string
	handler   events.Handler
}

// lifecycle tracks the active flag and the bus subscriptions an agent holds
// while active.
type lifecycle struct {
	mu     sync.Mutex
	name   string
	active bool
	subs   []events.Subscription
}

// activate subscribes the handlers and reports whether the agent was idle.
func (l *lifecycle) activate(bus Bus, handlers ...subscription) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return false
	}
	if bus != nil {
		for _, h := range handlers {
			l.subs = append(l.subs, bus.On(h.eventType, h.handler))
		}
	}
	l.active = true
	slog.Info("agent started", "agent", l.name)
	return true
}

// deactivate drops the subscriptions and reports whether the agent was active.
func (l *lifecycle) deactivate() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return false
	}
	for _, s := range l.subs {
		s.Unsubscribe()
	}
	l.subs = nil
	l.active = false
	slog.Info("agent stopped", "agent", l.name)
	return true
}

func (l *lifecycle) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *lifecycle) Name() string { return l.name }

func emit(ctx context.Context, bus Bus, eventType, source string, payload map[string]any) {
	if bus != nil {
		bus.Emit(ctx, eventType, source, payload)
	}
}
