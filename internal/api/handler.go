// Package api serves the dashboard's HTTP API.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/user/agentdeck/internal/notify"
	"github.com/user/agentdeck/internal/orchestrator"
	"github.com/user/agentdeck/internal/stream"
	"github.com/user/agentdeck/internal/types"
)

// Handler handles HTTP requests.
type Handler struct {
	orch      *orchestrator.Orchestrator
	leads     types.LeadStore
	tickets   types.TicketStore
	inventory types.InventoryStore
	toasts    *notify.Fanout
	stream    *stream.Server
}

// Deps are the Handler's collaborators. Toasts and Stream are optional.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Leads        types.LeadStore
	Tickets      types.TicketStore
	Inventory    types.InventoryStore
	Toasts       *notify.Fanout
	Stream       *stream.Server
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		orch:      d.Orchestrator,
		leads:     d.Leads,
		tickets:   d.Tickets,
		inventory: d.Inventory,
		toasts:    d.Toasts,
		stream:    d.Stream,
	}
}

// NewServer builds an echo server with recovery, request logging and the
// handler's routes.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/metrics", h.GetMetrics)

	g.GET("/leads", h.ListLeads)
	g.POST("/leads", h.CreateLead)
	g.GET("/leads/:id", h.GetLead)
	g.POST("/leads/:id/qualify", h.QualifyLead)

	g.GET("/tickets", h.ListTickets)
	g.POST("/tickets", h.CreateTicket)
	g.GET("/tickets/:id", h.GetTicket)
	g.POST("/tickets/:id/draft", h.DraftReply)
	g.POST("/tickets/:id/reply", h.ReplyTicket)
	g.POST("/tickets/:id/escalate", h.EscalateTicket)

	g.GET("/inventory", h.ListInventory)
	g.GET("/inventory/:sku", h.GetInventoryItem)
	g.POST("/inventory/:sku/analyze", h.AnalyzeInventory)
	g.POST("/inventory/:sku/order", h.GenerateOrder)
	g.POST("/inventory/:sku/stock", h.AdjustStock)

	g.GET("/events", h.ListEvents)
	g.GET("/tasks", h.ListTasks)
	g.POST("/tasks/process", h.ProcessTasks)
	g.POST("/batch", h.ProcessBatch)

	g.GET("/agents", h.ListAgents)
	g.POST("/agents/start", h.StartAgents)
	g.POST("/agents/stop", h.StopAgents)

	g.GET("/toasts", h.ListToasts)
	if h.stream != nil {
		g.GET("/stream", h.stream.HandleWebSocket)
	}
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"initialized": h.orch.Initialized(),
	})
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// failure maps a workflow or store error to a response. Not-found errors
// become 404; everything else is reported with fallback.
func failure(c echo.Context, err error, fallback int) error {
	if errors.Is(err, types.ErrNotFound) {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	if fallback >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "error", err)
	}
	return errorJSON(c, fallback, err.Error())
}

func queryInt(c echo.Context, name string, def int) int {
	if q := c.QueryParam(name); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			return n
		}
	}
	return def
}
