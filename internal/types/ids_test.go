// internal/types/ids_test.go
package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventID(t *testing.T) {
	id := NewEventID()
	assert.Len(t, string(id), 36, "expected UUID format, got %s", id)
}

func TestNewTicketIDFormat(t *testing.T) {
	id := string(NewTicketID())
	require.True(t, strings.HasPrefix(id, "TCK-"), id)
	assert.Len(t, id, 12)
	assert.Equal(t, strings.ToUpper(id), id)
}

func TestNewTicketIDUnique(t *testing.T) {
	seen := make(map[TicketID]bool)
	for i := 0; i < 100; i++ {
		id := NewTicketID()
		require.False(t, seen[id], "duplicate ticket id %s", id)
		seen[id] = true
	}
}

func TestNewOrderID(t *testing.T) {
	assert.Equal(t, OrderID("PO-1700000000123"), NewOrderID(time.UnixMilli(1700000000123)))
}
