package events

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event types routed by the orchestrator to follow-up tasks.
const (
	LeadQualified   = "lead.qualified"
	TicketEscalated = "ticket.escalated"
	SupplyAlert     = "supply.alert"
	OrderGenerated  = "order.generated"
)

const (
	LeadCreated             = "lead.created"
	LeadUpdated             = "lead.updated"
	LeadUnqualified         = "lead.unqualified"
	LeadProcessingStarted   = "lead.processing_started"
	LeadProcessingCompleted = "lead.processing_completed"
	LeadProcessingFailed    = "lead.processing_failed"

	TicketCreated             = "ticket.created"
	TicketProcessingStarted   = "ticket.processing_started"
	TicketProcessingCompleted = "ticket.processing_completed"
	TicketProcessingFailed    = "ticket.processing_failed"
	TicketEscalationRequired  = "ticket.escalation_required"
	TicketReplied             = "ticket.replied"
	TicketResolved            = "ticket.resolved"

	InventoryChanged             = "inventory.changed"
	InventoryProcessingStarted   = "inventory.processing_started"
	InventoryProcessingCompleted = "inventory.processing_completed"
	InventoryProcessingFailed    = "inventory.processing_failed"
	InventoryCriticalAlert       = "inventory.critical_alert"
	InventoryAnalyzed            = "inventory.analyzed"
	OrderRecommended             = "order.recommended"
	OrderProcessingFailed        = "order.processing_failed"

	MetricsUpdated = "metrics.updated"
)
