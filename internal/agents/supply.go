package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

const SupplyAgentName = "supplyAgent"

// DefaultSweepInterval is how often the supply agent checks all inventory.
const DefaultSweepInterval = 30 * time.Second

// sweepAlertRisk is the minimum risk score for the sweep to raise an alert.
const sweepAlertRisk = 60

type Recommendation struct {
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

type OrderRecommendation struct {
	Recommended bool   `json:"recommended"`
	Quantity    int    `json:"quantity"`
	Urgency     string `json:"urgency"`
}

// InventoryAnalysis is the outcome of AnalyzeInventory.
type InventoryAnalysis struct {
	SKU                 string               `json:"sku"`
	DaysOfSupply        int                  `json:"daysOfSupply"`
	RiskScore           int                  `json:"riskScore"`
	RiskLevel           string               `json:"riskLevel"`
	NeedsReorder        bool                 `json:"needsReorder"`
	Recommendations     []Recommendation     `json:"recommendations"`
	OrderRecommendation *OrderRecommendation `json:"orderRecommendation"`
}

// SupplyAgent analyses stock positions and raises supply alerts, both on
// inventory changes and from a periodic sweep.
type SupplyAgent struct {
	lifecycle
	store    types.InventoryStore
	bus      Bus
	interval time.Duration
	latency  time.Duration

	cronMu sync.Mutex
	cron   *cron.Cron
}

func NewSupplyAgent(store types.InventoryStore, bus Bus) *SupplyAgent {
	return &SupplyAgent{
		lifecycle: lifecycle{name: SupplyAgentName},
		store:     store,
		bus:       bus,
		interval:  DefaultSweepInterval,
	}
}

// SetSweepInterval changes the sweep period for the next Start. Cron
// schedules have one second resolution.
func (a *SupplyAgent) SetSweepInterval(d time.Duration) {
	if d > 0 {
		a.interval = d
	}
}

func (a *SupplyAgent) SetLatency(d time.Duration) { a.latency = d }

// Start subscribes to inventory.changed and schedules the sweep.
// cronMu is held across activation so a concurrent Stop always sees the
// cron it has to cancel.
func (a *SupplyAgent) Start() error {
	a.cronMu.Lock()
	defer a.cronMu.Unlock()
	if !a.activate(a.bus, subscription{events.InventoryChanged, a.handleInventoryChanged}) {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", a.interval), func() {
		if a.IsActive() {
			a.Sweep(context.Background())
		}
	}); err != nil {
		a.deactivate()
		return fmt.Errorf("scheduling inventory sweep: %w", err)
	}
	c.Start()
	a.cron = c
	return nil
}

// Stop cancels future sweeps. A sweep already running is allowed to finish.
func (a *SupplyAgent) Stop() {
	a.cronMu.Lock()
	defer a.cronMu.Unlock()
	a.deactivate()
	if a.cron != nil {
		a.cron.Stop()
		a.cron = nil
	}
}

// Sweep raises a supply alert for every item that needs reordering with a
// risk score of at least 60. It returns how many alerts were raised.
func (a *SupplyAgent) Sweep(ctx context.Context) int {
	raised := 0
	for _, it := range a.store.List() {
		if !scoring.ReorderNeeded(it) || scoring.SupplyRiskScore(it) < sweepAlertRisk {
			continue
		}
		if err := a.store.RaiseAlert(ctx, it.SKU); err != nil {
			slog.Warn("raising supply alert failed", "sku", it.SKU, "error", err)
			continue
		}
		raised++
	}
	if raised > 0 {
		slog.Info("inventory sweep raised alerts", "alerts", raised)
	}
	return raised
}

func (a *SupplyAgent) handleInventoryChanged(ctx context.Context, ev types.Event) error {
	sku, _ := ev.Payload["sku"].(string)
	it, ok := a.store.Find(sku)
	if !ok || !scoring.ReorderNeeded(it) {
		return nil
	}
	return a.store.RaiseAlert(ctx, sku)
}

// AnalyzeInventory scores an item's supply position and recommends actions.
// A nil item returns nil, nil.
func (a *SupplyAgent) AnalyzeInventory(ctx context.Context, item *types.InventoryItem) (*InventoryAnalysis, error) {
	if item == nil {
		return nil, nil
	}
	if err := wait(ctx, a.latency); err != nil {
		return nil, err
	}

	dos := scoring.DaysOfSupply(item)
	risk := scoring.SupplyRiskScore(item)
	reorder := scoring.ReorderNeeded(item)

	out := &InventoryAnalysis{
		SKU:             item.SKU,
		DaysOfSupply:    dos,
		RiskScore:       risk,
		RiskLevel:       scoring.RiskLevel(risk),
		NeedsReorder:    reorder,
		Recommendations: []Recommendation{},
	}
	if reorder {
		priority := "medium"
		if risk > 80 {
			priority = "high"
		}
		out.Recommendations = append(out.Recommendations, Recommendation{
			Action:   "Generate Purchase Order",
			Reason:   fmt.Sprintf("Stock level (%d) is below reorder point (%d)", item.CurrentStock, item.ReorderPoint),
			Priority: priority,
		})
	}
	if dos < 7 {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Action:   "Expedite Delivery",
			Reason:   fmt.Sprintf("Only %d days of supply remaining", dos),
			Priority: "high",
		})
	}
	if item.Backorders > 0 {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Action:   "Customer Communication",
			Reason:   fmt.Sprintf("%d units backordered", item.Backorders),
			Priority: "medium",
		})
	}
	if risk < 30 && !reorder {
		out.Recommendations = append(out.Recommendations, Recommendation{
			Action:   "Stock Level Optimal",
			Reason:   "Current stock levels are within acceptable range",
			Priority: "low",
		})
	}
	if reorder {
		urgency := "normal"
		if risk > 80 {
			urgency = "urgent"
		}
		out.OrderRecommendation = &OrderRecommendation{
			Recommended: true,
			Quantity:    scoring.SuggestedOrderQuantity(item),
			Urgency:     urgency,
		}
	}
	return out, nil
}

// Stats counts monitored items and those in low or critical status.
// Efficiency is the share of items not in alert.
func (a *SupplyAgent) Stats() Stats {
	items := a.store.List()
	st := Stats{Name: SupplyAgentName, Active: a.IsActive(), Processed: len(items), Monitored: len(items)}
	for _, it := range items {
		if it.Status == types.StockLow || it.Status == types.StockCritical {
			st.Alerts++
		}
	}
	st.Efficiency = int((1-float64(st.Alerts)/float64(max(len(items), 1)))*100 + 0.5)
	return st
}
