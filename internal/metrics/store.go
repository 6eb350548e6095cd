// Package metrics holds the dashboard headline figures and the sources that
// compute or fetch them.
package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/types"
)

// Counter keys accepted by Store.Increment and Store.Decrement.
const (
	TotalLeads      = "totalLeads"
	ActiveTickets   = "activeTickets"
	InventoryAlerts = "inventoryAlerts"
)

// State is a point-in-time view of the store.
type State struct {
	Metrics   types.MetricsSnapshot `json:"metrics"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// Store is the process-wide metrics state the orchestrator keeps current.
type Store struct {
	mu      sync.RWMutex
	snap    types.MetricsSnapshot
	loading bool
	err     string
	updated time.Time
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Snapshot() types.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Metrics: s.snap, Loading: s.loading, Error: s.err, UpdatedAt: s.updated}
}

// Set replaces the figures, clearing any error and the loading flag.
func (s *Store) Set(snap types.MetricsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.err = ""
	s.loading = false
	s.updated = s.now()
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError records a fetch failure and ends loading. Figures are kept.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
	s.loading = false
}

func (s *Store) counter(key string) (*int, error) {
	switch key {
	case TotalLeads:
		return &s.snap.TotalLeads, nil
	case ActiveTickets:
		return &s.snap.ActiveTickets, nil
	case InventoryAlerts:
		return &s.snap.InventoryAlerts, nil
	}
	return nil, fmt.Errorf("unknown metric counter %q", key)
}

func (s *Store) Increment(key string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counter(key)
	if err != nil {
		return err
	}
	*c += n
	s.updated = s.now()
	return nil
}

// Decrement lowers a counter, stopping at zero.
func (s *Store) Decrement(key string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.counter(key)
	if err != nil {
		return err
	}
	*c = max(0, *c-n)
	s.updated = s.now()
	return nil
}

// CalculateConversionRate stores converted/total as a percentage with one
// decimal place, or 0 when total is 0.
func (s *Store) CalculateConversionRate(converted, total int) float64 {
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(converted)/float64(total)*1000) / 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ConversionRate = rate
	s.updated = s.now()
	return rate
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = types.MetricsSnapshot{}
	s.err = ""
	s.loading = false
	s.updated = time.Time{}
}
