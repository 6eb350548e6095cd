package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/events"
	"github.com/user/agentdeck/internal/notify"
	"github.com/user/agentdeck/internal/orchestrator"
	"github.com/user/agentdeck/internal/state"
	"github.com/user/agentdeck/internal/types"
)

type testEnv struct {
	e         *echo.Echo
	orch      *orchestrator.Orchestrator
	leads     *state.LeadStore
	tickets   *state.TicketStore
	inventory *state.InventoryStore
	toasts    *notify.Fanout
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bus := events.NewBus(0)
	env := &testEnv{
		leads:     state.NewLeadStore(bus),
		tickets:   state.NewTicketStore(bus),
		inventory: state.NewInventoryStore(bus),
		toasts:    notify.NewFanout(0),
	}
	env.orch = orchestrator.New(orchestrator.Options{
		Bus:       bus,
		Leads:     env.leads,
		Tickets:   env.tickets,
		Inventory: env.inventory,
		Notifier:  env.toasts,
	})
	env.orch.Supply.SetSweepInterval(time.Hour)
	require.NoError(t, env.orch.Initialize(context.Background()))
	t.Cleanup(env.orch.Shutdown)

	_, err := env.inventory.Add(types.InventoryItem{
		SKU: "CM3-2024", Name: "Control Module CM3", CurrentStock: 12, ReorderPoint: 50,
		MaxStock: 200, DailyDemand: 1, SupplierETADays: 28, Backorders: 5, UnitCost: 125,
		Supplier: "Precision Parts Ltd",
	})
	require.NoError(t, err)

	env.e = NewServer(NewHandler(Deps{
		Orchestrator: env.orch,
		Leads:        env.leads,
		Tickets:      env.tickets,
		Inventory:    env.inventory,
		Toasts:       env.toasts,
	}))
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["initialized"])
}

func TestLeadEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/leads", `{"company":"NoName"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/leads",
		`{"name":"Sarah Chen","company":"TechFlow Inc","source":"referral","budget":"$250K+","intent":"high"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lead := decode[types.Lead](t, rec)
	require.NotNil(t, lead.Score)
	assert.Equal(t, 100, *lead.Score)

	rec = env.do(t, http.MethodGet, "/api/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Lead](t, rec), 1)

	rec = env.do(t, http.MethodPost, "/api/leads/"+string(lead.ID)+"/qualify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[agents.Qualification](t, rec)
	assert.Equal(t, "QUALIFY", q.Decision)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/leads/LEAD-missing", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/leads/LEAD-missing/qualify", "").Code)

	rec = env.do(t, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalLeads":1`)
}

func TestTicketEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/tickets", `{"subject":"x"}`).Code)

	rec := env.do(t, http.MethodPost, "/api/tickets",
		`{"subject":"Cannot log in","customerName":"Jane Doe","priority":"Medium","category":"Technical","message":"I can't login, password incorrect, urgent!!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	ticket := decode[types.Ticket](t, rec)
	path := "/api/tickets/" + string(ticket.ID)

	rec = env.do(t, http.MethodPost, path+"/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[map[string]any](t, rec)
	assert.Equal(t, "login_issue", draft["intent"])
	assert.Contains(t, draft["suggestedResponse"], "Dear Jane Doe,")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path+"/reply", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path+"/reply", `{"response":"hi","csat":9}`).Code)

	rec = env.do(t, http.MethodPost, path+"/reply", `{"response":"Please reset again.","csat":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["success"])

	got, _ := env.tickets.Find(ticket.ID)
	assert.Equal(t, types.TicketResolved, got.Status)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/tickets/TCK-missing/draft", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/tickets/TCK-missing/reply", `{"response":"x"}`).Code)
}

func TestEscalateQueuesReassignment(t *testing.T) {
	env := newTestEnv(t)
	ticket, err := env.tickets.Add(context.Background(), types.Ticket{Subject: "Outage", Message: "down"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/tickets/"+string(ticket.ID)+"/escalate", `{"reason":"VIP customer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.PriorityHigh, decode[types.Ticket](t, rec).Priority)

	rec = env.do(t, http.MethodGet, "/api/tasks?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"reassign_ticket"`)

	rec = env.do(t, http.MethodPost, "/api/tasks/process", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["processed"])

	got, _ := env.tickets.Find(ticket.ID)
	assert.Equal(t, orchestrator.Tier2Assignee, got.Assignee)
}

func TestInventoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/inventory/CM3-2024/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)
	analysis := decode[agents.InventoryAnalysis](t, rec)
	assert.True(t, analysis.NeedsReorder)

	rec = env.do(t, http.MethodPost, "/api/inventory/CM3-2024/order", `{"quantity":40}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[types.Order](t, rec)
	assert.Equal(t, 40, order.Quantity)
	assert.Equal(t, 5000.0, order.TotalCost)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/inventory/NOPE/order", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/inventory/NOPE/analyze", "").Code)

	rec = env.do(t, http.MethodPost, "/api/inventory/CM3-2024/stock", `{"action":"receive","quantity":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 112, decode[types.InventoryItem](t, rec).CurrentStock)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/inventory/CM3-2024/stock", `{"action":"burn","quantity":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/inventory/CM3-2024/stock", `{"action":"consume","quantity":0}`).Code)

	// the order toast is waiting in the queue
	env.do(t, http.MethodPost, "/api/tasks/process", "")
	rec = env.do(t, http.MethodGet, "/api/toasts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Purchase order created for 40 units of Control Module CM3")

	rec = env.do(t, http.MethodGet, "/api/events?type=order.generated", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Event](t, rec), 1)
}

func TestBatchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/batch", `{"kind":"orders","ids":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/batch", `{"kind":"inventory","ids":["CM3-2024","NOPE"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[orchestrator.BatchResult](t, rec)
	assert.Len(t, res.Results, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NOPE", res.Errors[0].Item)
}

func TestAgentEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/agents/stop", `{"name":"leadAgent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.orch.Lead.IsActive())
	assert.True(t, env.orch.Supply.IsActive())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/agents/stop", `{"name":"nope"}`).Code)

	rec = env.do(t, http.MethodPost, "/api/agents/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[[]agents.Stats](t, rec)
	require.Len(t, stats, 3)
	for _, s := range stats {
		assert.True(t, s.Active, s.Name)
	}

	rec = env.do(t, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"supplyAgent"`)
}
