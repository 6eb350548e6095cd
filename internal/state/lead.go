// internal/state/lead.go
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

const leadSource = "LeadStore"

// LeadStore keeps leads in insertion order.
type LeadStore struct {
	mu    sync.RWMutex
	leads []*types.Lead
	index map[types.LeadID]int
	pub   publisher
	now   func() time.Time
}

// NewLeadStore creates an empty store. pub may be nil.
func NewLeadStore(pub types.Publisher) *LeadStore {
	return &LeadStore{
		index: make(map[types.LeadID]int),
		pub:   publisher{pub},
		now:   time.Now,
	}
}

func cloneLead(l *types.Lead) *types.Lead {
	c := *l
	if l.Score != nil {
		s := *l.Score
		c.Score = &s
	}
	return &c
}

func (s *LeadStore) Find(id types.LeadID) (*types.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return cloneLead(s.leads[i]), true
}

func (s *LeadStore) List() []*types.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Lead, len(s.leads))
	for i, l := range s.leads {
		out[i] = cloneLead(l)
	}
	return out
}

// Add stores a new lead, filling ID, stage and timestamps when unset, and
// emits lead.created.
func (s *LeadStore) Add(ctx context.Context, lead types.Lead) (*types.Lead, error) {
	stored := cloneLead(&lead)
	now := s.now()
	if stored.ID == "" {
		stored.ID = types.NewLeadID()
	}
	if stored.Stage == "" {
		stored.Stage = types.StageNew
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.LastActivity.IsZero() {
		stored.LastActivity = now
	}

	s.mu.Lock()
	if _, exists := s.index[stored.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("lead already exists: %s", stored.ID)
	}
	s.index[stored.ID] = len(s.leads)
	s.leads = append(s.leads, stored)
	out := cloneLead(stored)
	s.mu.Unlock()

	s.pub.emit(ctx, events.LeadCreated, leadSource, map[string]any{
		"leadId":  string(out.ID),
		"name":    out.Name,
		"company": out.Company,
	})
	return out, nil
}

// Update applies a partial update, refreshes LastActivity and emits
// lead.updated.
func (s *LeadStore) Update(ctx context.Context, id types.LeadID, patch types.LeadPatch) error {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("lead %s: %w", id, types.ErrNotFound)
	}
	l := s.leads[i]
	var changed []string
	set := func(field string, apply func()) {
		apply()
		changed = append(changed, field)
	}
	if patch.Name != nil {
		set("name", func() { l.Name = *patch.Name })
	}
	if patch.Company != nil {
		set("company", func() { l.Company = *patch.Company })
	}
	if patch.Email != nil {
		set("email", func() { l.Email = *patch.Email })
	}
	if patch.Phone != nil {
		set("phone", func() { l.Phone = *patch.Phone })
	}
	if patch.Source != nil {
		set("source", func() { l.Source = *patch.Source })
	}
	if patch.Budget != nil {
		set("budget", func() { l.Budget = *patch.Budget })
	}
	if patch.Intent != nil {
		set("intent", func() { l.Intent = *patch.Intent })
	}
	if patch.Score != nil {
		score := *patch.Score
		set("score", func() { l.Score = &score })
	}
	if patch.Stage != nil {
		set("stage", func() { l.Stage = *patch.Stage })
	}
	l.LastActivity = s.now()
	s.mu.Unlock()

	s.pub.emit(ctx, events.LeadUpdated, leadSource, map[string]any{
		"leadId": string(id),
		"fields": changed,
	})
	return nil
}
