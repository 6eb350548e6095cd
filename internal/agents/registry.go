package agents

import (
	"errors"
	"fmt"
	"sync"
)

// Registry holds registered agents in registration order.
type Registry struct {
	mu     sync.RWMutex
	agents []Agent
	byName map[string]Agent
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Agent)}
}

// Register adds an agent. Names must be unique.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[a.Name()]; exists {
		return fmt.Errorf("agent already registered: %s", a.Name())
	}
	r.byName[a.Name()] = a
	r.agents = append(r.agents, a)
	return nil
}

// Get returns an agent by name.
func (r *Registry) Get(name string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	return a, ok
}

// All returns all registered agents in registration order.
func (r *Registry) All() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// StartAll starts every agent, continuing past failures.
func (r *Registry) StartAll() error {
	var errs []error
	for _, a := range r.All() {
		if err := a.Start(); err != nil {
			errs = append(errs, fmt.Errorf("starting %s: %w", a.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) StopAll() {
	for _, a := range r.All() {
		a.Stop()
	}
}

// Status reports every agent's stats in registration order.
func (r *Registry) Status() []Stats {
	agents := r.All()
	out := make([]Stats, len(agents))
	for i, a := range agents {
		out[i] = a.Stats()
	}
	return out
}
