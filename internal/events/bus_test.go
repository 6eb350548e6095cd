package events

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/types"
)

func TestEmitCallsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewBus(0)
	var order []string

	bus.On("a", func(ctx context.Context, ev types.Event) error {
		order = append(order, "first")
		return nil
	})
	bus.On(Wildcard, func(ctx context.Context, ev types.Event) error {
		order = append(order, "wildcard")
		return nil
	})
	bus.On("a", func(ctx context.Context, ev types.Event) error {
		order = append(order, "third")
		return nil
	})
	bus.On("b", func(ctx context.Context, ev types.Event) error {
		order = append(order, "other")
		return nil
	})

	ev := bus.Emit(context.Background(), "a", "test", map[string]any{"k": 1})
	assert.Equal(t, []string{"first", "wildcard", "third"}, order)
	assert.Equal(t, "a", ev.Type)
	assert.Equal(t, "test", ev.Source)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1, ev.Payload["k"])
}

func TestFailingHandlersAreIsolated(t *testing.T) {
	bus := NewBus(0)
	calls := 0

	bus.On("x", func(ctx context.Context, ev types.Event) error {
		return errors.New("boom")
	})
	bus.On("x", func(ctx context.Context, ev types.Event) error {
		panic("kaboom")
	})
	bus.On("x", func(ctx context.Context, ev types.Event) error {
		calls++
		return nil
	})

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), "x", "test", nil)
	})
	assert.Equal(t, 1, calls)
}

func TestPayloadIsCopied(t *testing.T) {
	bus := NewBus(0)
	payload := map[string]any{"n": 1}

	bus.On("x", func(ctx context.Context, ev types.Event) error {
		ev.Payload["n"] = 99
		return nil
	})
	var seen any
	bus.On("x", func(ctx context.Context, ev types.Event) error {
		seen = ev.Payload["n"]
		return nil
	})

	bus.Emit(context.Background(), "x", "test", payload)
	payload["n"] = 2

	assert.Equal(t, 1, seen)
	assert.Equal(t, 1, bus.RecentEvents(1)[0].Payload["n"])
}

func TestUnsubscribeAndOff(t *testing.T) {
	bus := NewBus(0)
	var a, b int
	subA := bus.On("x", func(ctx context.Context, ev types.Event) error { a++; return nil })
	bus.On("x", func(ctx context.Context, ev types.Event) error { b++; return nil })

	subA.Unsubscribe()
	subA.Unsubscribe()
	bus.Emit(context.Background(), "x", "test", nil)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)

	bus.Off("x")
	bus.Emit(context.Background(), "x", "test", nil)
	assert.Equal(t, 1, b)
	assert.Equal(t, 0, bus.ListenerCount("x"))
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	bus := NewBus(100)
	for i := 0; i < 150; i++ {
		bus.Emit(context.Background(), "tick", "test", map[string]any{"i": i})
	}

	recent := bus.RecentEvents(0)
	require.Len(t, recent, 100)
	assert.Equal(t, 149, recent[0].Payload["i"])
	assert.Equal(t, 50, recent[99].Payload["i"])

	top := bus.RecentEvents(3)
	require.Len(t, top, 3)
	assert.Equal(t, 147, top[2].Payload["i"])
}

func TestEventsByType(t *testing.T) {
	bus := NewBus(0)
	for i := 0; i < 4; i++ {
		typ := "even"
		if i%2 == 1 {
			typ = "odd"
		}
		bus.Emit(context.Background(), typ, "test", map[string]any{"i": i})
	}
	odd := bus.EventsByType("odd")
	require.Len(t, odd, 2)
	assert.Equal(t, 3, odd[0].Payload["i"])
	assert.Equal(t, 1, odd[1].Payload["i"])
	assert.Empty(t, bus.EventsByType("none"))
}

func TestCycleGuard(t *testing.T) {
	bus := NewBus(0)
	var pings, pongs int

	bus.On("ping", func(ctx context.Context, ev types.Event) error {
		pings++
		bus.Emit(ctx, "pong", "test", nil)
		return nil
	})
	bus.On("pong", func(ctx context.Context, ev types.Event) error {
		pongs++
		bus.Emit(ctx, "ping", "test", nil)
		return nil
	})

	bus.Emit(context.Background(), "ping", "test", nil)
	assert.Equal(t, 1, pings)
	assert.Equal(t, 1, pongs)
	// the suppressed re-emission is still recorded
	assert.Len(t, bus.EventsByType("ping"), 2)

	// separate top-level emits are not treated as a cycle
	bus.Emit(context.Background(), "ping", "test", nil)
	assert.Equal(t, 2, pings)
}

func TestNestedEmitOfDifferentTypeDispatches(t *testing.T) {
	bus := NewBus(0)
	var got []string
	bus.On("outer", func(ctx context.Context, ev types.Event) error {
		bus.Emit(ctx, "inner", "test", nil)
		return nil
	})
	bus.On("inner", func(ctx context.Context, ev types.Event) error {
		got = append(got, ev.Type)
		return nil
	})
	bus.Emit(context.Background(), "outer", "test", nil)
	assert.Equal(t, []string{"inner"}, got)
}

func TestClearListenersAndHistory(t *testing.T) {
	bus := NewBus(0)
	called := false
	bus.On("x", func(ctx context.Context, ev types.Event) error { called = true; return nil })
	bus.Emit(context.Background(), "x", "test", nil)
	require.True(t, called)

	called = false
	bus.ClearListeners()
	bus.ClearHistory()
	bus.Emit(context.Background(), "x", "test", nil)
	assert.False(t, called)
	assert.Len(t, bus.RecentEvents(0), 1)
}

func ExampleBus_Emit() {
	bus := NewBus(0)
	bus.On(SupplyAlert, func(ctx context.Context, ev types.Event) error {
		fmt.Println(ev.Type, ev.Payload["sku"])
		return nil
	})
	bus.Emit(context.Background(), SupplyAlert, "inventory", map[string]any{"sku": "SKU-1"})
	// Output: supply.alert SKU-1
}
