package metrics

import (
	"context"
	"time"

	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

// LocalSource computes a snapshot from the in-process stores.
type LocalSource struct {
	Leads     types.LeadStore
	Tickets   types.TicketStore
	Inventory types.InventoryStore
	Policy    scoring.SLAPolicy
	Now       func() time.Time
}

func NewLocalSource(leads types.LeadStore, tickets types.TicketStore, inventory types.InventoryStore, policy scoring.SLAPolicy) *LocalSource {
	return &LocalSource{Leads: leads, Tickets: tickets, Inventory: inventory, Policy: policy, Now: time.Now}
}

func (s *LocalSource) FetchMetrics(ctx context.Context) (*types.MetricsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	snap := &types.MetricsSnapshot{}
	if s.Leads != nil {
		leads := s.Leads.List()
		snap.TotalLeads = len(leads)
		snap.ConversionRate = scoring.ConversionRate(leads)
		snap.AvgLeadScore = scoring.AvgLeadScore(leads, now)
	}
	if s.Tickets != nil {
		tickets := s.Tickets.List()
		snap.ActiveTickets = scoring.Backlog(tickets)
		snap.SLACompliance = scoring.SLACompliance(tickets, s.Policy)
		snap.AvgHandleTime = scoring.AvgHandleTime(tickets)
	}
	if s.Inventory != nil {
		items := s.Inventory.List()
		for _, it := range items {
			if it.Status != types.StockHealthy {
				snap.InventoryAlerts++
			}
		}
		snap.FillRate = scoring.FillRate(items)
		snap.InventoryValue = scoring.InventoryValue(items)
	}
	return snap, nil
}
