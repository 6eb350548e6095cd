package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user/agentdeck/internal/orchestrator"
	"github.com/user/agentdeck/internal/tasks"
	"github.com/user/agentdeck/internal/types"
)

const defaultEventLimit = 100

// ListEvents returns recent bus events, most recent first. An optional
// "type" narrows the list to one event type.
// GET /api/events
func (h *Handler) ListEvents(c echo.Context) error {
	bus := h.orch.Bus()
	limit := queryInt(c, "limit", defaultEventLimit)
	var evs []types.Event
	if t := c.QueryParam("type"); t != "" {
		evs = bus.EventsByType(t)
		if len(evs) > limit {
			evs = evs[:limit]
		}
	} else {
		evs = bus.RecentEvents(limit)
	}
	if evs == nil {
		evs = []types.Event{}
	}
	return c.JSON(http.StatusOK, evs)
}

// ListTasks returns queued tasks in run order with per-status counts.
// GET /api/tasks
func (h *Handler) ListTasks(c echo.Context) error {
	all := h.orch.Queue.List()
	if s := c.QueryParam("status"); s != "" {
		filtered := make([]tasks.Task, 0, len(all))
		for _, t := range all {
			if string(t.Status) == s {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tasks":  all,
		"counts": h.orch.Queue.Counts(),
	})
}

// ProcessTasks drains the queue, up to "limit" tasks when given.
// POST /api/tasks/process
func (h *Handler) ProcessTasks(c echo.Context) error {
	n := h.orch.Drain(c.Request().Context(), queryInt(c, "limit", 0))
	return c.JSON(http.StatusOK, map[string]any{
		"processed": n,
		"counts":    h.orch.Queue.Counts(),
	})
}

// BatchRequest is the body of POST /api/batch.
type BatchRequest struct {
	Kind          string   `json:"kind"`
	IDs           []string `json:"ids"`
	MaxConcurrent int      `json:"maxConcurrent"`
}

// POST /api/batch
func (h *Handler) ProcessBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	res, err := h.orch.ProcessBatch(c.Request().Context(), orchestrator.BatchKind(req.Kind), req.IDs, req.MaxConcurrent)
	if errors.Is(err, orchestrator.ErrUnknownBatchKind) {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, res)
}

// GET /api/agents
func (h *Handler) ListAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.AgentStatus())
}

type agentRequest struct {
	Name string `json:"name"`
}

// StartAgents starts the named agent, or every agent when no name is given.
// POST /api/agents/start
func (h *Handler) StartAgents(c echo.Context) error {
	var req agentRequest
	_ = c.Bind(&req)
	var err error
	if req.Name == "" {
		err = h.orch.Registry.StartAll()
	} else {
		err = h.orch.StartAgent(req.Name)
	}
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, h.orch.AgentStatus())
}

// POST /api/agents/stop
func (h *Handler) StopAgents(c echo.Context) error {
	var req agentRequest
	_ = c.Bind(&req)
	if req.Name == "" {
		h.orch.Registry.StopAll()
	} else if err := h.orch.StopAgent(req.Name); err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, h.orch.AgentStatus())
}

// GET /api/toasts
func (h *Handler) ListToasts(c echo.Context) error {
	if h.toasts == nil {
		return c.JSON(http.StatusOK, []any{})
	}
	return c.JSON(http.StatusOK, h.toasts.Recent(queryInt(c, "limit", 0)))
}
