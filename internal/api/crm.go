package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user/agentdeck/internal/types"
)

// GetMetrics returns the dashboard headline figures.
// GET /api/metrics
func (h *Handler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Metrics().State())
}

// GET /api/leads
func (h *Handler) ListLeads(c echo.Context) error {
	return c.JSON(http.StatusOK, h.leads.List())
}

// GET /api/leads/:id
func (h *Handler) GetLead(c echo.Context) error {
	lead, ok := h.leads.Find(types.LeadID(c.Param("id")))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "lead not found")
	}
	return c.JSON(http.StatusOK, lead)
}

// CreateLead stores a lead; the lead agent scores it as it is created.
// POST /api/leads
func (h *Handler) CreateLead(c echo.Context) error {
	var lead types.Lead
	if err := c.Bind(&lead); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if lead.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "name is required")
	}
	created, err := h.leads.Add(c.Request().Context(), lead)
	if err != nil {
		return failure(c, err, http.StatusConflict)
	}
	// pick up the score written while lead.created was dispatched
	if fresh, ok := h.leads.Find(created.ID); ok {
		created = fresh
	}
	return c.JSON(http.StatusCreated, created)
}

// POST /api/leads/:id/qualify
func (h *Handler) QualifyLead(c echo.Context) error {
	q, err := h.orch.OnNewLead(c.Request().Context(), types.LeadID(c.Param("id")))
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, q)
}

// GET /api/tickets
func (h *Handler) ListTickets(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tickets.List())
}

// GET /api/tickets/:id
func (h *Handler) GetTicket(c echo.Context) error {
	t, ok := h.tickets.Find(types.TicketID(c.Param("id")))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "ticket not found")
	}
	return c.JSON(http.StatusOK, t)
}

// POST /api/tickets
func (h *Handler) CreateTicket(c echo.Context) error {
	var t types.Ticket
	if err := c.Bind(&t); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if t.Subject == "" || t.Message == "" {
		return errorJSON(c, http.StatusBadRequest, "subject and message are required")
	}
	created, err := h.tickets.Add(c.Request().Context(), t)
	if err != nil {
		return failure(c, err, http.StatusConflict)
	}
	return c.JSON(http.StatusCreated, created)
}

// DraftReply runs the support agent over a ticket.
// POST /api/tickets/:id/draft
func (h *Handler) DraftReply(c echo.Context) error {
	d, err := h.orch.OnTicketOpened(c.Request().Context(), types.TicketID(c.Param("id")))
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, d)
}

// ReplyRequest is the body of POST /api/tickets/:id/reply.
type ReplyRequest struct {
	Response string `json:"response"`
	CSAT     *int   `json:"csat,omitempty"`
}

// POST /api/tickets/:id/reply
func (h *Handler) ReplyTicket(c echo.Context) error {
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Response == "" {
		return errorJSON(c, http.StatusBadRequest, "response is required")
	}
	if req.CSAT != nil && (*req.CSAT < 1 || *req.CSAT > 5) {
		return errorJSON(c, http.StatusBadRequest, "csat must be between 1 and 5")
	}
	res, err := h.orch.OnTicketReply(c.Request().Context(), types.TicketID(c.Param("id")), req.Response, req.CSAT)
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, res)
}

// POST /api/tickets/:id/escalate
func (h *Handler) EscalateTicket(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&req)
	if req.Reason == "" {
		req.Reason = "Escalated from dashboard"
	}
	id := types.TicketID(c.Param("id"))
	if err := h.tickets.Escalate(c.Request().Context(), id, req.Reason); err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	t, _ := h.tickets.Find(id)
	return c.JSON(http.StatusOK, t)
}

// GET /api/inventory
func (h *Handler) ListInventory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.inventory.List())
}

// GET /api/inventory/:sku
func (h *Handler) GetInventoryItem(c echo.Context) error {
	it, ok := h.inventory.Find(c.Param("sku"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "inventory item not found")
	}
	return c.JSON(http.StatusOK, it)
}

// POST /api/inventory/:sku/analyze
func (h *Handler) AnalyzeInventory(c echo.Context) error {
	a, err := h.orch.OnInventorySelected(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return failure(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, a)
}

// GenerateOrder submits a purchase order; a missing or zero quantity orders
// the suggested amount.
// POST /api/inventory/:sku/order
func (h *Handler) GenerateOrder(c echo.Context) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	_ = c.Bind(&req)
	if req.Quantity < 0 {
		return errorJSON(c, http.StatusBadRequest, "quantity must not be negative")
	}
	order, err := h.orch.OnOrderGeneration(c.Request().Context(), c.Param("sku"), req.Quantity)
	if err != nil {
		return failure(c, err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, order)
}

// StockRequest is the body of POST /api/inventory/:sku/stock. Action is
// "set", "receive" or "consume".
type StockRequest struct {
	Action   string `json:"action"`
	Quantity int    `json:"quantity"`
}

// POST /api/inventory/:sku/stock
func (h *Handler) AdjustStock(c echo.Context) error {
	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	sku := c.Param("sku")

	var err error
	switch req.Action {
	case "set":
		err = h.inventory.UpdateStock(ctx, sku, req.Quantity)
	case "receive":
		err = h.inventory.Receive(ctx, sku, req.Quantity)
	case "consume":
		err = h.inventory.Consume(ctx, sku, req.Quantity)
	default:
		return errorJSON(c, http.StatusBadRequest, "action must be set, receive or consume")
	}
	if err != nil {
		return failure(c, err, http.StatusBadRequest)
	}
	it, _ := h.inventory.Find(sku)
	return c.JSON(http.StatusOK, it)
}
