package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) Emit(_ context.Context, eventType, source string, payload map[string]any) types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := types.Event{Type: eventType, Source: source, Payload: payload}
	r.events = append(r.events, ev)
	return ev
}

func (r *recorder) byType(eventType string) []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestLeadStoreAddDefaults(t *testing.T) {
	rec := &recorder{}
	store := NewLeadStore(rec)

	lead, err := store.Add(context.Background(), types.Lead{Name: "Sarah Chen", Company: "TechFlow"})
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, types.StageNew, lead.Stage)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.Nil(t, lead.Score)

	created := rec.byType(events.LeadCreated)
	require.Len(t, created, 1)
	assert.Equal(t, string(lead.ID), created[0].Payload["leadId"])
	assert.Equal(t, "LeadStore", created[0].Source)
}

func TestLeadStoreRejectsDuplicateID(t *testing.T) {
	store := NewLeadStore(nil)
	_, err := store.Add(context.Background(), types.Lead{ID: "l1"})
	require.NoError(t, err)
	_, err = store.Add(context.Background(), types.Lead{ID: "l1"})
	assert.Error(t, err)
}

func TestLeadStoreUpdateRefreshesActivity(t *testing.T) {
	rec := &recorder{}
	store := NewLeadStore(rec)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = fixedClock(start)
	lead, err := store.Add(context.Background(), types.Lead{Name: "Marcus"})
	require.NoError(t, err)

	later := start.Add(48 * time.Hour)
	store.now = fixedClock(later)
	score := 82
	stage := types.StageQualified
	require.NoError(t, store.Update(context.Background(), lead.ID, types.LeadPatch{Score: &score, Stage: &stage}))

	got, ok := store.Find(lead.ID)
	require.True(t, ok)
	require.NotNil(t, got.Score)
	assert.Equal(t, 82, *got.Score)
	assert.Equal(t, types.StageQualified, got.Stage)
	assert.Equal(t, later, got.LastActivity)
	assert.Equal(t, start, got.CreatedAt)

	updated := rec.byType(events.LeadUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, []string{"score", "stage"}, updated[0].Payload["fields"])
}

func TestLeadStoreUpdateMissing(t *testing.T) {
	store := NewLeadStore(nil)
	err := store.Update(context.Background(), "nope", types.LeadPatch{})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLeadStoreReturnsCopies(t *testing.T) {
	store := NewLeadStore(nil)
	score := 50
	lead, err := store.Add(context.Background(), types.Lead{Name: "Priya", Score: &score})
	require.NoError(t, err)

	*lead.Score = 99
	lead.Name = "changed"
	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Priya", list[0].Name)
	assert.Equal(t, 50, *list[0].Score)
}

func TestTicketStoreAddDefaults(t *testing.T) {
	rec := &recorder{}
	store := NewTicketStore(rec)

	ticket, err := store.Add(context.Background(), types.Ticket{Subject: "Login broken"})
	require.NoError(t, err)

	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, string(ticket.ID))
	assert.Equal(t, types.TicketOpen, ticket.Status)
	assert.Equal(t, types.PriorityMedium, ticket.Priority)
	assert.Len(t, rec.byType(events.TicketCreated), 1)
}

func TestTicketStoreResolvedStatusImpliesTimestamps(t *testing.T) {
	store := NewTicketStore(nil)
	ticket, err := store.Add(context.Background(), types.Ticket{Subject: "s", Status: types.TicketResolved})
	require.NoError(t, err)
	require.NotNil(t, ticket.ResolvedAt)
	require.NotNil(t, ticket.FirstResponseAt)

	other, err := store.Add(context.Background(), types.Ticket{Subject: "s2"})
	require.NoError(t, err)
	resolved := types.TicketResolved
	require.NoError(t, store.Update(context.Background(), other.ID, types.TicketPatch{Status: &resolved}))

	got, _ := store.Find(other.ID)
	require.NotNil(t, got.ResolvedAt)
	require.NotNil(t, got.FirstResponseAt)
	assert.False(t, got.FirstResponseAt.After(*got.ResolvedAt))
}

func TestTicketStoreReplyFlow(t *testing.T) {
	store := NewTicketStore(nil)
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = fixedClock(opened)
	ticket, err := store.Add(context.Background(), types.Ticket{Subject: "s"})
	require.NoError(t, err)

	replied := opened.Add(30 * time.Minute)
	store.now = fixedClock(replied)
	require.NoError(t, store.RecordFirstResponse(context.Background(), ticket.ID))
	got, _ := store.Find(ticket.ID)
	assert.Equal(t, types.TicketInProgress, got.Status)
	assert.Equal(t, replied, *got.FirstResponseAt)

	// a second response keeps the first timestamp
	store.now = fixedClock(replied.Add(time.Hour))
	require.NoError(t, store.RecordFirstResponse(context.Background(), ticket.ID))

	csat := 5
	require.NoError(t, store.Resolve(context.Background(), ticket.ID, &csat))
	got, _ = store.Find(ticket.ID)
	assert.Equal(t, types.TicketResolved, got.Status)
	assert.Equal(t, replied, *got.FirstResponseAt)
	assert.Equal(t, replied.Add(time.Hour), *got.ResolvedAt)
	assert.Equal(t, 5, *got.CSAT)
}

func TestTicketStoreResolveWithoutResponse(t *testing.T) {
	store := NewTicketStore(nil)
	ticket, _ := store.Add(context.Background(), types.Ticket{Subject: "s"})
	require.NoError(t, store.Resolve(context.Background(), ticket.ID, nil))

	got, _ := store.Find(ticket.ID)
	require.NotNil(t, got.FirstResponseAt)
	assert.Equal(t, *got.ResolvedAt, *got.FirstResponseAt)
	assert.Nil(t, got.CSAT)
}

func TestTicketStoreEscalate(t *testing.T) {
	rec := &recorder{}
	store := NewTicketStore(rec)
	ticket, _ := store.Add(context.Background(), types.Ticket{Subject: "Outage", Priority: types.PriorityLow})

	require.NoError(t, store.Escalate(context.Background(), ticket.ID, "customer threatened to cancel"))

	got, _ := store.Find(ticket.ID)
	assert.Equal(t, types.PriorityHigh, got.Priority)
	assert.Equal(t, EscalationAssignee, got.Assignee)
	assert.Equal(t, types.TicketInProgress, got.Status)

	escalated := rec.byType(events.TicketEscalated)
	require.Len(t, escalated, 1)
	assert.Equal(t, string(ticket.ID), escalated[0].Payload["ticketId"])
	assert.Equal(t, "customer threatened to cancel", escalated[0].Payload["reason"])
}

func TestTicketStoreMissing(t *testing.T) {
	store := NewTicketStore(nil)
	ctx := context.Background()
	assert.ErrorIs(t, store.Update(ctx, "TCK-NONE", types.TicketPatch{}), types.ErrNotFound)
	assert.ErrorIs(t, store.RecordFirstResponse(ctx, "TCK-NONE"), types.ErrNotFound)
	assert.ErrorIs(t, store.Resolve(ctx, "TCK-NONE", nil), types.ErrNotFound)
	assert.ErrorIs(t, store.Escalate(ctx, "TCK-NONE", ""), types.ErrNotFound)
}

func widget() types.InventoryItem {
	return types.InventoryItem{
		SKU:             "WPX1-2024",
		Name:            "Widget Pro X1",
		CurrentStock:    45,
		ReorderPoint:    100,
		MaxStock:        400,
		DailyDemand:     5,
		SupplierETADays: 14,
		UnitCost:        25.99,
		Supplier:        "TechSupply Co",
	}
}

func TestInventoryStoreAddDerivesStatus(t *testing.T) {
	store := NewInventoryStore(nil)
	it, err := store.Add(widget())
	require.NoError(t, err)
	assert.Equal(t, types.StockCritical, it.Status)

	_, err = store.Add(widget())
	assert.Error(t, err)
	_, err = store.Add(types.InventoryItem{})
	assert.Error(t, err)
}

func TestInventoryStoreStockChanges(t *testing.T) {
	rec := &recorder{}
	store := NewInventoryStore(rec)
	_, err := store.Add(widget())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Receive(ctx, "WPX1-2024", 55))
	it, _ := store.Find("WPX1-2024")
	assert.Equal(t, 100, it.CurrentStock)
	assert.Equal(t, types.StockLow, it.Status)

	require.NoError(t, store.Consume(ctx, "WPX1-2024", 500))
	it, _ = store.Find("WPX1-2024")
	assert.Equal(t, 0, it.CurrentStock)
	assert.Equal(t, types.StockOutOfStock, it.Status)

	require.NoError(t, store.UpdateStock(ctx, "WPX1-2024", -10))
	it, _ = store.Find("WPX1-2024")
	assert.Equal(t, 0, it.CurrentStock)

	require.NoError(t, store.UpdateStock(ctx, "WPX1-2024", 300))
	it, _ = store.Find("WPX1-2024")
	assert.Equal(t, types.StockHealthy, it.Status)

	changed := rec.byType(events.InventoryChanged)
	require.Len(t, changed, 4)
	assert.Equal(t, 45, changed[0].Payload["previousStock"])
	assert.Equal(t, 100, changed[0].Payload["currentStock"])
	assert.Equal(t, "low", changed[0].Payload["status"])

	assert.Error(t, store.Receive(ctx, "WPX1-2024", 0))
	assert.ErrorIs(t, store.UpdateStock(ctx, "missing", 1), types.ErrNotFound)
}

func TestInventoryStoreRaiseAlert(t *testing.T) {
	rec := &recorder{}
	store := NewInventoryStore(rec)
	_, _ = store.Add(widget())

	require.NoError(t, store.RaiseAlert(context.Background(), "WPX1-2024"))
	alerts := rec.byType(events.SupplyAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Widget Pro X1", alerts[0].Payload["itemName"])
	assert.Equal(t, 9, alerts[0].Payload["daysOfSupply"])
	assert.Equal(t, "InventoryStore", alerts[0].Source)

	assert.ErrorIs(t, store.RaiseAlert(context.Background(), "missing"), types.ErrNotFound)
}

func TestInventoryStoreGenerateOrder(t *testing.T) {
	rec := &recorder{}
	store := NewInventoryStore(rec)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = fixedClock(now)
	_, _ = store.Add(widget())

	order, err := store.GenerateOrder(context.Background(), "WPX1-2024", 0)
	require.NoError(t, err)

	// max(2*100-45, 5*14)
	assert.Equal(t, 155, order.Quantity)
	assert.InDelta(t, 155*25.99, order.TotalCost, 0.001)
	assert.Equal(t, OrderSubmitted, order.Status)
	assert.Equal(t, "TechSupply Co", order.Supplier)
	assert.Equal(t, now.AddDate(0, 0, 14), order.EstimatedDelivery)
	assert.Regexp(t, `^PO-\d+$`, string(order.ID))

	explicit, err := store.GenerateOrder(context.Background(), "WPX1-2024", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, explicit.Quantity)

	assert.Len(t, store.Orders(), 2)
	generated := rec.byType(events.OrderGenerated)
	require.Len(t, generated, 2)
	assert.Equal(t, 155, generated[0].Payload["quantity"])
}

func TestLoadDefaultSeed(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Leads)
	assert.NotEmpty(t, seed.Tickets)
	assert.NotEmpty(t, seed.Inventory)

	leads, tickets, inv := NewLeadStore(nil), NewTicketStore(nil), NewInventoryStore(nil)
	require.NoError(t, seed.Apply(context.Background(), leads, tickets, inv))
	assert.Len(t, leads.List(), len(seed.Leads))
	assert.Len(t, tickets.List(), len(seed.Tickets))

	it, ok := inv.Find("CM3-2024")
	require.True(t, ok)
	assert.Equal(t, types.StockCritical, it.Status)
}

func TestLoadSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := []byte(`
leads:
  - name: Sarah Chen
    budget: $250K+
    intent: high
    source: referral
inventory:
  - sku: A-1
    name: Thing
    currentStock: 5
    reorderPoint: 10
    supplierETA_days: 3
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Leads, 1)
	assert.Equal(t, types.Budget250KPlus, seed.Leads[0].Budget)
	require.Len(t, seed.Inventory, 1)
	assert.Equal(t, 3, seed.Inventory[0].SupplierETADays)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = ParseSeed([]byte("leads: [unclosed"))
	assert.Error(t, err)
}
