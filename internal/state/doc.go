// Package state provides the memory-resident stores for leads, tickets and
// inventory. State lives for the process lifetime; seed files can populate it
// at startup. Stores publish their domain events through a types.Publisher.
package state

import (
	"context"

	"github.com/user/agentdeck/internal/types"
)

// Compile-time interface compliance checks.
var _ types.LeadStore = (*LeadStore)(nil)
var _ types.TicketStore = (*TicketStore)(nil)
var _ types.InventoryStore = (*InventoryStore)(nil)

// publisher wraps an optional Publisher so stores work without a bus in tests.
type publisher struct {
	pub types.Publisher
}

func (p publisher) emit(ctx context.Context, eventType, source string, payload map[string]any) {
	if p.pub == nil {
		return
	}
	p.pub.Emit(ctx, eventType, source, payload)
}
