package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/state"
	"github.com/user/agentdeck/internal/types"
)

func TestStoreCounters(t *testing.T) {
	s := NewStore()
	s.Set(types.MetricsSnapshot{TotalLeads: 10, ActiveTickets: 2})

	require.NoError(t, s.Increment(TotalLeads, 5))
	require.NoError(t, s.Decrement(ActiveTickets, 3))
	require.NoError(t, s.Increment(InventoryAlerts, 1))

	snap := s.Snapshot()
	assert.Equal(t, 15, snap.TotalLeads)
	assert.Equal(t, 0, snap.ActiveTickets)
	assert.Equal(t, 1, snap.InventoryAlerts)

	assert.Error(t, s.Increment("conversionRate", 1))
}

func TestStoreConversionRate(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0.0, s.CalculateConversionRate(5, 0))
	assert.Equal(t, 33.3, s.CalculateConversionRate(1, 3))
	assert.Equal(t, 33.3, s.Snapshot().ConversionRate)
	// floor(156 * 0.3) of 156
	assert.Equal(t, 29.5, s.CalculateConversionRate(46, 156))
}

func TestStoreErrorKeepsFigures(t *testing.T) {
	s := NewStore()
	s.Set(types.MetricsSnapshot{TotalLeads: 7})
	s.SetLoading(true)
	s.SetError("Failed to load metrics")

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Failed to load metrics", st.Error)
	assert.Equal(t, 7, st.Metrics.TotalLeads)

	s.Set(types.MetricsSnapshot{TotalLeads: 8})
	assert.Empty(t, s.State().Error)

	s.Reset()
	assert.Equal(t, types.MetricsSnapshot{}, s.Snapshot())
}

func TestLocalSource(t *testing.T) {
	ctx := context.Background()
	leads := state.NewLeadStore(nil)
	tickets := state.NewTicketStore(nil)
	inventory := state.NewInventoryStore(nil)

	score := 80
	_, _ = leads.Add(ctx, types.Lead{Name: "a", Score: &score, Stage: types.StageWon})
	_, _ = leads.Add(ctx, types.Lead{Name: "b", Stage: types.StageNew})
	open, _ := tickets.Add(ctx, types.Ticket{Subject: "open"})
	done, _ := tickets.Add(ctx, types.Ticket{Subject: "done"})
	require.NoError(t, tickets.Resolve(ctx, done.ID, nil))
	_, _ = inventory.Add(types.InventoryItem{SKU: "A", CurrentStock: 5, ReorderPoint: 10, UnitCost: 2})
	_, _ = inventory.Add(types.InventoryItem{SKU: "B", CurrentStock: 50, ReorderPoint: 10, UnitCost: 1})

	src := NewLocalSource(leads, tickets, inventory, scoring.DefaultSLAPolicy())
	snap, err := src.FetchMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.TotalLeads)
	assert.Equal(t, 50.0, snap.ConversionRate)
	assert.Equal(t, 1, snap.ActiveTickets, "only %s is open", open.ID)
	assert.Equal(t, 1, snap.InventoryAlerts)
	assert.Equal(t, 60.0, snap.InventoryValue)
	assert.Equal(t, 100, snap.FillRate)
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.MetricsSnapshot{TotalLeads: 156, ActiveTickets: 23, InventoryAlerts: 7, ConversionRate: 24.5})
	}))
	defer srv.Close()

	snap, err := NewHTTPSource(srv.URL).FetchMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 156, snap.TotalLeads)
	assert.Equal(t, 24.5, snap.ConversionRate)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(types.MetricsSnapshot{TotalLeads: 1})
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	src.Retry = fastPolicy()
	snap, err := src.FetchMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalLeads)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	src.Retry = &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}
	_, err := src.FetchMetrics(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
