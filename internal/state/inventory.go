// internal/state/inventory.go
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

const inventorySource = "InventoryStore"

// OrderSubmitted is the status of every generated purchase order.
const OrderSubmitted = "submitted"

// InventoryStore keeps stocked items keyed by SKU and the purchase orders
// generated against them.
type InventoryStore struct {
	mu     sync.RWMutex
	items  []*types.InventoryItem
	index  map[string]int
	orders []types.Order
	pub    publisher
	now    func() time.Time
}

func NewInventoryStore(pub types.Publisher) *InventoryStore {
	return &InventoryStore{
		index: make(map[string]int),
		pub:   publisher{pub},
		now:   time.Now,
	}
}

func cloneItem(it *types.InventoryItem) *types.InventoryItem {
	c := *it
	return &c
}

// Add registers a new item. The status is derived from the stock level.
func (s *InventoryStore) Add(item types.InventoryItem) (*types.InventoryItem, error) {
	if item.SKU == "" {
		return nil, fmt.Errorf("inventory item requires a sku")
	}
	stored := cloneItem(&item)
	if stored.CurrentStock < 0 {
		stored.CurrentStock = 0
	}
	stored.Status = scoring.StockStatus(stored.CurrentStock, stored.ReorderPoint)
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[stored.SKU]; exists {
		return nil, fmt.Errorf("inventory item already exists: %s", stored.SKU)
	}
	s.index[stored.SKU] = len(s.items)
	s.items = append(s.items, stored)
	return cloneItem(stored), nil
}

func (s *InventoryStore) Find(sku string) (*types.InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[sku]
	if !ok {
		return nil, false
	}
	return cloneItem(s.items[i]), true
}

func (s *InventoryStore) List() []*types.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.InventoryItem, len(s.items))
	for i, it := range s.items {
		out[i] = cloneItem(it)
	}
	return out
}

// Orders returns generated purchase orders, oldest first.
func (s *InventoryStore) Orders() []types.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// setStock applies fn to the current stock, clamps at zero, refreshes the
// status and emits inventory.changed.
func (s *InventoryStore) setStock(ctx context.Context, sku string, fn func(current int) int) error {
	s.mu.Lock()
	i, ok := s.index[sku]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("inventory item %s: %w", sku, types.ErrNotFound)
	}
	it := s.items[i]
	previous := it.CurrentStock
	it.CurrentStock = max(0, fn(previous))
	it.Status = scoring.StockStatus(it.CurrentStock, it.ReorderPoint)
	it.LastUpdated = s.now()
	current, status := it.CurrentStock, it.Status
	s.mu.Unlock()

	s.pub.emit(ctx, events.InventoryChanged, inventorySource, map[string]any{
		"sku":           sku,
		"previousStock": previous,
		"currentStock":  current,
		"status":        string(status),
	})
	return nil
}

// UpdateStock sets the stock level; negative values are stored as zero.
func (s *InventoryStore) UpdateStock(ctx context.Context, sku string, stock int) error {
	return s.setStock(ctx, sku, func(int) int { return stock })
}

// Receive adds delivered units to stock.
func (s *InventoryStore) Receive(ctx context.Context, sku string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("receive quantity must be positive, got %d", qty)
	}
	return s.setStock(ctx, sku, func(cur int) int { return cur + qty })
}

// Consume removes units from stock, stopping at zero.
func (s *InventoryStore) Consume(ctx context.Context, sku string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("consume quantity must be positive, got %d", qty)
	}
	return s.setStock(ctx, sku, func(cur int) int { return cur - qty })
}

// RaiseAlert emits supply.alert for the item.
func (s *InventoryStore) RaiseAlert(ctx context.Context, sku string) error {
	it, ok := s.Find(sku)
	if !ok {
		return fmt.Errorf("inventory item %s: %w", sku, types.ErrNotFound)
	}
	s.pub.emit(ctx, events.SupplyAlert, inventorySource, map[string]any{
		"sku":          it.SKU,
		"itemName":     it.Name,
		"currentStock": it.CurrentStock,
		"reorderPoint": it.ReorderPoint,
		"daysOfSupply": scoring.DaysOfSupply(it),
	})
	return nil
}

// GenerateOrder submits a purchase order and emits order.generated. A qty of
// zero or less uses scoring.SuggestedOrderQuantity.
func (s *InventoryStore) GenerateOrder(ctx context.Context, sku string, qty int) (*types.Order, error) {
	it, ok := s.Find(sku)
	if !ok {
		return nil, fmt.Errorf("inventory item %s: %w", sku, types.ErrNotFound)
	}
	if qty <= 0 {
		qty = scoring.SuggestedOrderQuantity(it)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("no order quantity for %s", sku)
	}

	now := s.now()
	order := types.Order{
		ID:                types.NewOrderID(now),
		SKU:               it.SKU,
		ItemName:          it.Name,
		Quantity:          qty,
		UnitCost:          it.UnitCost,
		TotalCost:         float64(qty) * it.UnitCost,
		Supplier:          it.Supplier,
		Status:            OrderSubmitted,
		CreatedAt:         now,
		EstimatedDelivery: now.AddDate(0, 0, it.SupplierETADays),
	}

	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()

	s.pub.emit(ctx, events.OrderGenerated, inventorySource, map[string]any{
		"orderId":           string(order.ID),
		"sku":               order.SKU,
		"itemName":          order.ItemName,
		"quantity":          order.Quantity,
		"totalCost":         order.TotalCost,
		"supplier":          order.Supplier,
		"estimatedDelivery": order.EstimatedDelivery,
	})
	return &order, nil
}
