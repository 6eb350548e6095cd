// internal/state/ticket.go
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

const (
	ticketSource = "TicketStore"

	// EscalationAssignee receives tickets handed over by Escalate.
	EscalationAssignee = "Tier-2 Support"
)

// TicketStore keeps support tickets in insertion order and enforces the
// resolution timestamps invariants on every mutation.
type TicketStore struct {
	mu      sync.RWMutex
	tickets []*types.Ticket
	index   map[types.TicketID]int
	pub     publisher
	now     func() time.Time
}

func NewTicketStore(pub types.Publisher) *TicketStore {
	return &TicketStore{
		index: make(map[types.TicketID]int),
		pub:   publisher{pub},
		now:   time.Now,
	}
}

func cloneTicket(t *types.Ticket) *types.Ticket {
	c := *t
	if t.FirstResponseAt != nil {
		v := *t.FirstResponseAt
		c.FirstResponseAt = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		c.ResolvedAt = &v
	}
	if t.CSAT != nil {
		v := *t.CSAT
		c.CSAT = &v
	}
	return &c
}

// normalize restores the timestamp invariants: a resolved ticket has a
// resolution time, and a resolution time implies a first response.
func (s *TicketStore) normalize(t *types.Ticket) {
	if t.Status == types.TicketResolved && t.ResolvedAt == nil {
		now := s.now()
		t.ResolvedAt = &now
	}
	if t.ResolvedAt != nil && t.FirstResponseAt == nil {
		v := *t.ResolvedAt
		t.FirstResponseAt = &v
	}
}

func (s *TicketStore) Find(id types.TicketID) (*types.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return cloneTicket(s.tickets[i]), true
}

func (s *TicketStore) List() []*types.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Ticket, len(s.tickets))
	for i, t := range s.tickets {
		out[i] = cloneTicket(t)
	}
	return out
}

// Add stores a ticket, defaulting to open/Medium, and emits ticket.created.
func (s *TicketStore) Add(ctx context.Context, ticket types.Ticket) (*types.Ticket, error) {
	stored := cloneTicket(&ticket)
	if stored.ID == "" {
		stored.ID = types.NewTicketID()
	}
	if stored.Status == "" {
		stored.Status = types.TicketOpen
	}
	if stored.Priority == "" {
		stored.Priority = types.PriorityMedium
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.normalize(stored)

	s.mu.Lock()
	if _, exists := s.index[stored.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("ticket already exists: %s", stored.ID)
	}
	s.index[stored.ID] = len(s.tickets)
	s.tickets = append(s.tickets, stored)
	out := cloneTicket(stored)
	s.mu.Unlock()

	s.pub.emit(ctx, events.TicketCreated, ticketSource, map[string]any{
		"ticketId": string(out.ID),
		"subject":  out.Subject,
		"priority": string(out.Priority),
		"category": out.Category,
	})
	return out, nil
}

// mutate runs fn on the stored ticket under the write lock.
func (s *TicketStore) mutate(id types.TicketID, fn func(t *types.Ticket)) (*types.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, types.ErrNotFound)
	}
	t := s.tickets[i]
	fn(t)
	s.normalize(t)
	return cloneTicket(t), nil
}

func (s *TicketStore) Update(_ context.Context, id types.TicketID, patch types.TicketPatch) error {
	_, err := s.mutate(id, func(t *types.Ticket) {
		if patch.Subject != nil {
			t.Subject = *patch.Subject
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Assignee != nil {
			t.Assignee = *patch.Assignee
		}
		if patch.Message != nil {
			t.Message = *patch.Message
		}
		if patch.FirstResponseAt != nil {
			v := *patch.FirstResponseAt
			t.FirstResponseAt = &v
		}
		if patch.ResolvedAt != nil {
			v := *patch.ResolvedAt
			t.ResolvedAt = &v
		}
		if patch.CSAT != nil {
			v := *patch.CSAT
			t.CSAT = &v
		}
	})
	return err
}

// RecordFirstResponse stamps the first response time once and moves an open
// ticket to in_progress.
func (s *TicketStore) RecordFirstResponse(_ context.Context, id types.TicketID) error {
	_, err := s.mutate(id, func(t *types.Ticket) {
		if t.FirstResponseAt == nil {
			now := s.now()
			t.FirstResponseAt = &now
		}
		if t.Status == types.TicketOpen {
			t.Status = types.TicketInProgress
		}
	})
	return err
}

// Resolve closes out a ticket with an optional CSAT rating.
func (s *TicketStore) Resolve(_ context.Context, id types.TicketID, csat *int) error {
	_, err := s.mutate(id, func(t *types.Ticket) {
		now := s.now()
		if t.FirstResponseAt == nil {
			fr := now
			t.FirstResponseAt = &fr
		}
		t.ResolvedAt = &now
		t.Status = types.TicketResolved
		if csat != nil {
			v := *csat
			t.CSAT = &v
		}
	})
	return err
}

// Escalate raises the ticket to High priority, hands it to tier two and
// emits ticket.escalated.
func (s *TicketStore) Escalate(ctx context.Context, id types.TicketID, reason string) error {
	t, err := s.mutate(id, func(t *types.Ticket) {
		t.Priority = types.PriorityHigh
		t.Assignee = EscalationAssignee
		if t.Status == types.TicketOpen {
			t.Status = types.TicketInProgress
		}
	})
	if err != nil {
		return err
	}
	s.pub.emit(ctx, events.TicketEscalated, ticketSource, map[string]any{
		"ticketId":     string(t.ID),
		"subject":      t.Subject,
		"customerName": t.CustomerName,
		"reason":       reason,
	})
	return nil
}
