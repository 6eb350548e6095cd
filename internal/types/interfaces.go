// internal/types/interfaces.go
package types

import "context"

// Publisher is the narrow view of the event bus that stores and agents emit through.
type Publisher interface {
	Emit(ctx context.Context, eventType, source string, payload map[string]any) Event
}

// Lookups return copies; mutating a returned value does not change the store.
type LeadStore interface {
	Find(id LeadID) (*Lead, bool)
	List() []*Lead
	Add(ctx context.Context, lead Lead) (*Lead, error)
	Update(ctx context.Context, id LeadID, patch LeadPatch) error
}

type TicketStore interface {
	Find(id TicketID) (*Ticket, bool)
	List() []*Ticket
	Add(ctx context.Context, ticket Ticket) (*Ticket, error)
	Update(ctx context.Context, id TicketID, patch TicketPatch) error
	RecordFirstResponse(ctx context.Context, id TicketID) error
	Resolve(ctx context.Context, id TicketID, csat *int) error
	Escalate(ctx context.Context, id TicketID, reason string) error
}

type InventoryStore interface {
	Find(sku string) (*InventoryItem, bool)
	List() []*InventoryItem
	UpdateStock(ctx context.Context, sku string, stock int) error
	Receive(ctx context.Context, sku string, qty int) error
	Consume(ctx context.Context, sku string, qty int) error
	RaiseAlert(ctx context.Context, sku string) error
	GenerateOrder(ctx context.Context, sku string, qty int) (*Order, error)
}

// Notifier is the toast sink. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, toast Toast) error
}

type MetricsSource interface {
	FetchMetrics(ctx context.Context) (*MetricsSnapshot, error)
}
