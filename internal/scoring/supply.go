package scoring

import (
	"math"

	"github.com/user/agentdeck/internal/types"
)

// SupplyRiskScore adds stock-ratio (up to 40), supplier ETA (up to 30) and
// backorder-to-weekly-demand (up to 30) risk, capped at 100. An item with no
// reorder point carries no stock-ratio risk.
func SupplyRiskScore(item *types.InventoryItem) int {
	if item == nil {
		return 0
	}
	risk := 0

	if item.ReorderPoint > 0 {
		ratio := float64(item.CurrentStock) / float64(item.ReorderPoint)
		switch {
		case ratio <= 0.2:
			risk += 40
		case ratio <= 0.5:
			risk += 30
		case ratio <= 1:
			risk += 20
		}
	}

	switch {
	case item.SupplierETADays > 20:
		risk += 30
	case item.SupplierETADays > 10:
		risk += 20
	case item.SupplierETADays > 5:
		risk += 10
	}

	weekly := math.Max(1, float64(item.DailyDemand*7))
	switch backorder := float64(item.Backorders) / weekly; {
	case backorder > 2:
		risk += 30
	case backorder > 1:
		risk += 20
	case backorder > 0.5:
		risk += 10
	}

	return min(100, risk)
}

// RiskLevel buckets a risk score: critical above 80, high above 60, medium
// above 30, low otherwise.
func RiskLevel(risk int) string {
	switch {
	case risk > 80:
		return "critical"
	case risk > 60:
		return "high"
	case risk > 30:
		return "medium"
	default:
		return "low"
	}
}

// DaysOfSupply = round(currentStock / max(1, dailyDemand)).
func DaysOfSupply(item *types.InventoryItem) int {
	if item == nil {
		return 0
	}
	return round(float64(item.CurrentStock) / math.Max(1, float64(item.DailyDemand)))
}

func ReorderNeeded(item *types.InventoryItem) bool {
	return item != nil && item.CurrentStock <= item.ReorderPoint
}

// StockStatus derives an item's status from stock and reorder point.
func StockStatus(stock, reorderPoint int) types.InventoryStatus {
	switch {
	case stock <= 0:
		return types.StockOutOfStock
	case float64(stock) <= float64(reorderPoint)*0.5:
		return types.StockCritical
	case stock <= reorderPoint:
		return types.StockLow
	default:
		return types.StockHealthy
	}
}

// FillRate is the share of a month's demand not lost to backorders; 100 when
// there is no demand.
func FillRate(items []*types.InventoryItem) int {
	var demand, backorders float64
	for _, it := range items {
		if it == nil {
			continue
		}
		demand += float64(it.DailyDemand * 30)
		backorders += float64(it.Backorders)
	}
	if demand == 0 {
		return 100
	}
	return round((demand - backorders) / demand * 100)
}

func InventoryValue(items []*types.InventoryItem) float64 {
	total := 0.0
	for _, it := range items {
		if it == nil {
			continue
		}
		total += float64(it.CurrentStock) * it.UnitCost
	}
	return total
}

// Turnover is annual demand value over on-hand value, one decimal place.
func Turnover(items []*types.InventoryItem) float64 {
	value := InventoryValue(items)
	if value == 0 {
		return 0
	}
	annual := 0.0
	for _, it := range items {
		if it == nil {
			continue
		}
		annual += float64(it.DailyDemand*365) * it.UnitCost
	}
	return round1(annual / value)
}

// SuggestedOrderQuantity covers twice the reorder point less current stock,
// or the demand over the supplier lead time, whichever is larger.
func SuggestedOrderQuantity(item *types.InventoryItem) int {
	if item == nil {
		return 0
	}
	return max(item.ReorderPoint*2-item.CurrentStock, item.DailyDemand*item.SupplierETADays)
}
