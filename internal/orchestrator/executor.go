package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/user/agentdeck/internal/tasks"
	"github.com/user/agentdeck/internal/types"
)

const (
	fulfillmentAssignee = "Supply Chain Team"
	systemCustomer      = "System Generated"
	systemEmail         = "system@crmcloud.com"
)

// execute is the queue's executor. Unknown task types are logged and
// complete without doing anything.
func (o *Orchestrator) execute(ctx context.Context, task *tasks.Task) error {
	slog.Info("executing task", "task_id", string(task.ID), "type", task.Type, "source", task.Source)

	switch task.Type {
	case TaskScheduleDemo:
		slog.Info("demo scheduled", "lead_id", task.Payload["leadId"], "lead", task.Payload["leadName"], "score", task.Payload["score"])
		return nil
	case TaskReassignTicket:
		return o.reassignTicket(ctx, task.Payload)
	case TaskCreateFulfillmentTicket:
		return o.createFulfillmentTicket(ctx, task.Payload)
	case TaskShowToast:
		return o.showToast(ctx, task.Payload)
	default:
		slog.Warn("unknown task type", "task_id", string(task.ID), "type", task.Type)
		return nil
	}
}

func (o *Orchestrator) reassignTicket(ctx context.Context, payload map[string]any) error {
	id, _ := payload["ticketId"].(string)
	if id == "" {
		return errors.New("reassign_ticket: missing ticketId")
	}
	assignee, _ := payload["newAssignee"].(string)
	if assignee == "" {
		assignee = Tier2Assignee
	}
	if err := o.tickets.Update(ctx, types.TicketID(id), types.TicketPatch{Assignee: &assignee}); err != nil {
		return fmt.Errorf("reassign ticket: %w", err)
	}
	slog.Info("ticket reassigned", "ticket_id", id, "assignee", assignee)
	return nil
}

func (o *Orchestrator) createFulfillmentTicket(ctx context.Context, payload map[string]any) error {
	name := payload["itemName"]
	ticket, err := o.tickets.Add(ctx, types.Ticket{
		Subject:       fmt.Sprintf("Fulfillment Risk: %v", name),
		CustomerName:  systemCustomer,
		CustomerEmail: systemEmail,
		Category:      "General",
		Priority:      types.PriorityHigh,
		Status:        types.TicketOpen,
		Assignee:      fulfillmentAssignee,
		Message: fmt.Sprintf("Supply alert for %v (SKU: %v). Current stock: %v, Days of supply: %v",
			name, payload["sku"], payload["currentStock"], payload["daysOfSupply"]),
	})
	if err != nil {
		return fmt.Errorf("create fulfillment ticket: %w", err)
	}
	slog.Info("fulfillment ticket created", "ticket_id", string(ticket.ID), "sku", payload["sku"])
	return nil
}

func (o *Orchestrator) showToast(ctx context.Context, payload map[string]any) error {
	toast := types.Toast{Type: types.ToastInfo}
	if v, ok := payload["type"].(string); ok && v != "" {
		toast.Type = types.ToastType(v)
	}
	toast.Title, _ = payload["title"].(string)
	toast.Message, _ = payload["message"].(string)

	if o.notifier == nil {
		slog.Info("toast", "type", toast.Type, "title", toast.Title, "message", toast.Message)
		return nil
	}
	if err := o.notifier.Notify(ctx, toast); err != nil {
		return fmt.Errorf("show toast: %w", err)
	}
	return nil
}
