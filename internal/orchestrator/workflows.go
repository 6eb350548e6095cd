package orchestrator

import (
	"context"
	"fmt"

	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

const escalationReason = "AI detected escalation needed"

// ReplyResult is returned by OnTicketReply.
type ReplyResult struct {
	Success  bool           `json:"success"`
	TicketID types.TicketID `json:"ticketId"`
}

// OnNewLead qualifies a lead. Qualifying leads are announced by the lead
// agent itself; anything else is announced as lead.unqualified.
func (o *Orchestrator) OnNewLead(ctx context.Context, id types.LeadID) (*agents.Qualification, error) {
	defer o.track(BatchLeads, string(id))()
	o.emit(ctx, events.LeadProcessingStarted, map[string]any{"leadId": string(id)})

	q, err := o.Lead.QualifyLead(ctx, id)
	if err == nil && q == nil {
		err = fmt.Errorf("lead %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		o.emit(ctx, events.LeadProcessingFailed, map[string]any{"leadId": string(id), "error": err.Error()})
		return nil, err
	}

	if q.Decision != "QUALIFY" {
		o.emit(ctx, events.LeadUnqualified, map[string]any{
			"leadId": string(id),
			"score":  q.Score,
			"reason": q.Decision,
		})
	}
	o.emit(ctx, events.LeadProcessingCompleted, map[string]any{"leadId": string(id), "result": q})
	return q, nil
}

// OnTicketOpened drafts a reply for a ticket and flags it when the draft
// calls for escalation.
func (o *Orchestrator) OnTicketOpened(ctx context.Context, id types.TicketID) (*agents.Draft, error) {
	defer o.track(BatchTickets, string(id))()
	o.emit(ctx, events.TicketProcessingStarted, map[string]any{"ticketId": string(id)})

	draft, err := o.draft(ctx, id)
	if err != nil {
		o.emit(ctx, events.TicketProcessingFailed, map[string]any{"ticketId": string(id), "error": err.Error()})
		return nil, err
	}

	if draft.EscalationNeeded {
		o.emit(ctx, events.TicketEscalationRequired, map[string]any{
			"ticketId": string(id),
			"reason":   escalationReason,
		})
	}
	o.emit(ctx, events.TicketProcessingCompleted, map[string]any{"ticketId": string(id), "reply": draft})
	return draft, nil
}

func (o *Orchestrator) draft(ctx context.Context, id types.TicketID) (*agents.Draft, error) {
	ticket, ok := o.tickets.Find(id)
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, types.ErrNotFound)
	}
	return o.Support.DraftReply(ctx, ticket)
}

// OnTicketReply records the agent's response and resolves the ticket. csat
// may be nil.
func (o *Orchestrator) OnTicketReply(ctx context.Context, id types.TicketID, response string, csat *int) (*ReplyResult, error) {
	err := o.tickets.RecordFirstResponse(ctx, id)
	if err == nil {
		err = o.tickets.Resolve(ctx, id, csat)
	}
	if err != nil {
		o.emit(ctx, events.TicketProcessingFailed, map[string]any{"ticketId": string(id), "error": err.Error()})
		return nil, err
	}

	o.emit(ctx, events.TicketReplied, map[string]any{"ticketId": string(id), "response": response})
	o.emit(ctx, events.TicketResolved, map[string]any{"ticketId": string(id)})
	return &ReplyResult{Success: true, TicketID: id}, nil
}

// OnInventorySelected analyses one item and announces critical stock and
// order recommendations.
func (o *Orchestrator) OnInventorySelected(ctx context.Context, sku string) (*agents.InventoryAnalysis, error) {
	defer o.track(BatchInventory, sku)()
	o.emit(ctx, events.InventoryProcessingStarted, map[string]any{"sku": sku})

	item, ok := o.inventory.Find(sku)
	var (
		analysis *agents.InventoryAnalysis
		err      error
	)
	if !ok {
		err = fmt.Errorf("inventory item %s: %w", sku, types.ErrNotFound)
	} else {
		analysis, err = o.Supply.AnalyzeInventory(ctx, item)
	}
	if err != nil {
		o.emit(ctx, events.InventoryProcessingFailed, map[string]any{"sku": sku, "error": err.Error()})
		return nil, err
	}

	if analysis.RiskLevel == "critical" {
		o.emit(ctx, events.InventoryCriticalAlert, map[string]any{
			"sku":          sku,
			"itemName":     item.Name,
			"currentStock": item.CurrentStock,
			"reorderPoint": item.ReorderPoint,
		})
	}
	if rec := analysis.OrderRecommendation; rec != nil && rec.Recommended {
		o.emit(ctx, events.OrderRecommended, map[string]any{"sku": sku, "recommendation": rec})
	}
	o.emit(ctx, events.InventoryAnalyzed, map[string]any{"sku": sku, "analysis": analysis})
	return analysis, nil
}

// OnOrderGeneration submits a purchase order. qty <= 0 orders the suggested
// quantity. The store announces the order with order.generated.
func (o *Orchestrator) OnOrderGeneration(ctx context.Context, sku string, qty int) (*types.Order, error) {
	order, err := o.inventory.GenerateOrder(ctx, sku, qty)
	if err != nil {
		o.emit(ctx, events.OrderProcessingFailed, map[string]any{"sku": sku, "error": err.Error()})
		return nil, err
	}
	return order, nil
}
