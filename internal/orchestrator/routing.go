package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/metrics"
	"github.com/user/agentdeck/internal/tasks"
	"github.com/user/agentdeck/internal/types"
)

// Task types created by the routing table.
const (
	TaskScheduleDemo            = "schedule_demo"
	TaskReassignTicket          = "reassign_ticket"
	TaskCreateFulfillmentTicket = "create_fulfillment_ticket"
	TaskShowToast               = "show_toast"
)

// Tier2Assignee is who escalated tickets are reassigned to.
const Tier2Assignee = "Tier-2"

func (o *Orchestrator) enqueue(taskType string, priority tasks.Priority, taskSource string, payload map[string]any) {
	t := tasks.New(taskType, priority, payload)
	t.Source = taskSource
	o.Queue.Add(t)
}

func (o *Orchestrator) routeLeadQualified(ctx context.Context, ev types.Event) error {
	o.enqueue(TaskScheduleDemo, tasks.PriorityMedium, "LeadAgent", maps.Clone(ev.Payload))
	return nil
}

func (o *Orchestrator) routeTicketEscalated(ctx context.Context, ev types.Event) error {
	payload := maps.Clone(ev.Payload)
	if payload == nil {
		payload = map[string]any{}
	}
	payload["newAssignee"] = Tier2Assignee
	o.enqueue(TaskReassignTicket, tasks.PriorityHigh, "SupportAgent", payload)
	return nil
}

func (o *Orchestrator) routeSupplyAlert(ctx context.Context, ev types.Event) error {
	o.enqueue(TaskCreateFulfillmentTicket, tasks.PriorityHigh, "SupplyAgent", maps.Clone(ev.Payload))
	o.enqueue(TaskShowToast, tasks.PriorityImmediate, "SupplyAgent", map[string]any{
		"type":  string(types.ToastWarning),
		"title": "Supply Alert",
		"message": fmt.Sprintf("%v is running low (%v days remaining)",
			ev.Payload["itemName"], ev.Payload["daysOfSupply"]),
	})
	return nil
}

func (o *Orchestrator) routeOrderGenerated(ctx context.Context, ev types.Event) error {
	o.enqueue(TaskShowToast, tasks.PriorityImmediate, "InventoryStore", map[string]any{
		"type":  string(types.ToastSuccess),
		"title": "Order Generated",
		"message": fmt.Sprintf("Purchase order created for %v units of %v",
			ev.Payload["quantity"], ev.Payload["itemName"]),
	})
	return nil
}

// Metric listeners keep the metrics store in step with domain events and
// announce every change with metrics.updated.

func (o *Orchestrator) onLeadCreated(ctx context.Context, ev types.Event) error {
	if err := o.metrics.Increment(metrics.TotalLeads, 1); err != nil {
		return err
	}
	o.metricsUpdated(ctx, "leads", "created")
	return nil
}

// onLeadQualified recalculates the conversion rate from the lead total,
// treating 30% of leads as converted.
func (o *Orchestrator) onLeadQualified(ctx context.Context, ev types.Event) error {
	total := o.metrics.Snapshot().TotalLeads
	converted := int(math.Floor(float64(total) * 0.3))
	o.metrics.CalculateConversionRate(converted, total)
	o.metricsUpdated(ctx, "leads", "qualified")
	return nil
}

func (o *Orchestrator) onTicketCreated(ctx context.Context, ev types.Event) error {
	if err := o.metrics.Increment(metrics.ActiveTickets, 1); err != nil {
		return err
	}
	o.metricsUpdated(ctx, "tickets", "created")
	return nil
}

func (o *Orchestrator) onTicketResolved(ctx context.Context, ev types.Event) error {
	if err := o.metrics.Decrement(metrics.ActiveTickets, 1); err != nil {
		return err
	}
	o.metricsUpdated(ctx, "tickets", "resolved")
	return nil
}

func (o *Orchestrator) onOrderGenerated(ctx context.Context, ev types.Event) error {
	o.metricsUpdated(ctx, "inventory", "order_generated")
	return nil
}

func (o *Orchestrator) metricsUpdated(ctx context.Context, kind, action string) {
	slog.Debug("metrics changed", "type", kind, "action", action)
	o.emit(ctx, events.MetricsUpdated, map[string]any{
		"type":    kind,
		"action":  action,
		"metrics": o.metrics.Snapshot(),
	})
}
