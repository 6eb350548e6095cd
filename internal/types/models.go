// internal/types/models.go
package types

import (
	"errors"
	"time"
)

// ErrNotFound is returned by store mutations addressed at a missing record.
var ErrNotFound = errors.New("not found")

// Event is an immutable record of something that happened, broadcast on the bus.
type Event struct {
	ID        EventID        `json:"id"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

type LeadSource string

const (
	SourceReferral LeadSource = "referral"
	SourceEvent    LeadSource = "event"
	SourceWebsite  LeadSource = "website"
	SourceAd       LeadSource = "ad"
)

type Budget string

const (
	Budget10to50K   Budget = "$10K-50K"
	Budget50to100K  Budget = "$50K-100K"
	Budget100to250K Budget = "$100K-250K"
	Budget250KPlus  Budget = "$250K+"
)

type Intent string

const (
	IntentLow    Intent = "low"
	IntentMedium Intent = "medium"
	IntentHigh   Intent = "high"
)

type LeadStage string

const (
	StageNew         LeadStage = "new"
	StageContacted   LeadStage = "contacted"
	StageQualified   LeadStage = "qualified"
	StageUnqualified LeadStage = "unqualified"
	StageNurture     LeadStage = "nurture"
	StageWon         LeadStage = "won"
	StageLost        LeadStage = "lost"
)

type Lead struct {
	ID           LeadID     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Company      string     `json:"company" yaml:"company"`
	Email        string     `json:"email" yaml:"email"`
	Phone        string     `json:"phone,omitempty" yaml:"phone"`
	Source       LeadSource `json:"source" yaml:"source"`
	Budget       Budget     `json:"budget" yaml:"budget"`
	Intent       Intent     `json:"intent" yaml:"intent"`
	Score        *int       `json:"score" yaml:"score"`
	Stage        LeadStage  `json:"stage" yaml:"stage"`
	LastActivity time.Time  `json:"lastActivity" yaml:"lastActivity"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
}

// LeadPatch carries a partial lead update; nil fields are left untouched.
type LeadPatch struct {
	Name    *string     `json:"name,omitempty"`
	Company *string     `json:"company,omitempty"`
	Email   *string     `json:"email,omitempty"`
	Phone   *string     `json:"phone,omitempty"`
	Source  *LeadSource `json:"source,omitempty"`
	Budget  *Budget     `json:"budget,omitempty"`
	Intent  *Intent     `json:"intent,omitempty"`
	Score   *int        `json:"score,omitempty"`
	Stage   *LeadStage  `json:"stage,omitempty"`
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type Ticket struct {
	ID              TicketID     `json:"id" yaml:"id"`
	Subject         string       `json:"subject" yaml:"subject"`
	CustomerName    string       `json:"customerName" yaml:"customerName"`
	CustomerEmail   string       `json:"customerEmail" yaml:"customerEmail"`
	Category        string       `json:"category" yaml:"category"`
	Priority        Priority     `json:"priority" yaml:"priority"`
	Status          TicketStatus `json:"status" yaml:"status"`
	Assignee        string       `json:"assignee" yaml:"assignee"`
	Message         string       `json:"message" yaml:"message"`
	CreatedAt       time.Time    `json:"createdAt" yaml:"createdAt"`
	FirstResponseAt *time.Time   `json:"firstResponseAt,omitempty" yaml:"firstResponseAt"`
	ResolvedAt      *time.Time   `json:"resolvedAt,omitempty" yaml:"resolvedAt"`
	CSAT            *int         `json:"csat,omitempty" yaml:"csat"`
}

type TicketPatch struct {
	Subject         *string       `json:"subject,omitempty"`
	Category        *string       `json:"category,omitempty"`
	Priority        *Priority     `json:"priority,omitempty"`
	Status          *TicketStatus `json:"status,omitempty"`
	Assignee        *string       `json:"assignee,omitempty"`
	Message         *string       `json:"message,omitempty"`
	FirstResponseAt *time.Time    `json:"firstResponseAt,omitempty"`
	ResolvedAt      *time.Time    `json:"resolvedAt,omitempty"`
	CSAT            *int          `json:"csat,omitempty"`
}

type InventoryStatus string

const (
	StockHealthy    InventoryStatus = "healthy"
	StockLow        InventoryStatus = "low"
	StockCritical   InventoryStatus = "critical"
	StockOutOfStock InventoryStatus = "out_of_stock"
)

type InventoryItem struct {
	SKU             string          `json:"sku" yaml:"sku"`
	Name            string          `json:"name" yaml:"name"`
	CurrentStock    int             `json:"currentStock" yaml:"currentStock"`
	ReorderPoint    int             `json:"reorderPoint" yaml:"reorderPoint"`
	MaxStock        int             `json:"maxStock" yaml:"maxStock"`
	DailyDemand     int             `json:"dailyDemand" yaml:"dailyDemand"`
	SupplierETADays int             `json:"supplierETA_days" yaml:"supplierETA_days"`
	Backorders      int             `json:"backorders" yaml:"backorders"`
	UnitCost        float64         `json:"unitCost" yaml:"unitCost"`
	Supplier        string          `json:"supplier" yaml:"supplier"`
	Status          InventoryStatus `json:"status" yaml:"status"`
	LastUpdated     time.Time       `json:"lastUpdated" yaml:"lastUpdated"`
}

// Order is a submitted purchase order.
type Order struct {
	ID                OrderID   `json:"orderId"`
	SKU               string    `json:"sku"`
	ItemName          string    `json:"itemName"`
	Quantity          int       `json:"quantity"`
	UnitCost          float64   `json:"unitCost"`
	TotalCost         float64   `json:"totalCost"`
	Supplier          string    `json:"supplier"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
}

type ToastType string

const (
	ToastInfo    ToastType = "info"
	ToastSuccess ToastType = "success"
	ToastWarning ToastType = "warning"
	ToastError   ToastType = "error"
)

// Toast is a short user-facing notification.
type Toast struct {
	Type    ToastType `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// MetricsSnapshot is the dashboard headline figures.
type MetricsSnapshot struct {
	TotalLeads      int     `json:"totalLeads"`
	ActiveTickets   int     `json:"activeTickets"`
	InventoryAlerts int     `json:"inventoryAlerts"`
	ConversionRate  float64 `json:"conversionRate"`
	AvgLeadScore    int     `json:"avgLeadScore"`
	SLACompliance   int     `json:"slaCompliance"`
	AvgHandleTime   float64 `json:"avgHandleTime"`
	FillRate        int     `json:"fillRate"`
	InventoryValue  float64 `json:"inventoryValue"`
}
