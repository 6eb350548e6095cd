// internal/types/ids.go
package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventID string
type TaskID string
type LeadID string
type TicketID string
type OrderID string

func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

func NewLeadID() LeadID {
	return LeadID(uuid.New().String())
}

// NewTicketID returns a short human-readable ticket number such as
// "TCK-1A2B3C4D".
func NewTicketID() TicketID {
	short := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return TicketID("TCK-" + short)
}

// NewOrderID derives a purchase order number from the creation time.
func NewOrderID(at time.Time) OrderID {
	return OrderID("PO-" + strconv.FormatInt(at.UnixMilli(), 10))
}
