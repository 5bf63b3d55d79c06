package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/service"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util"
)

// TicketSlaHandler exposes the SLA clock transitions the ticketing
// system invokes on its lifecycle events.
type TicketSlaHandler struct {
	slaService *service.TicketSlaService
}

// NewTicketSlaHandler returns a new handler instance.
func NewTicketSlaHandler(slaService *service.TicketSlaService) *TicketSlaHandler {
	return &TicketSlaHandler{slaService: slaService}
}

type priorityChangeRequest struct {
	Priority string `json:"priority"`
}

// InitializeDeadlines sets both deadlines on a freshly created ticket.
func (h *TicketSlaHandler) InitializeDeadlines(c *fiber.Ctx) error {
	ticket, err := h.slaService.InitializeDeadlines(c.UserContext(), c.Params("ticketID"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ticket_id":         ticket.ID,
		"response_due_at":   ticket.ResponseDueAt,
		"resolution_due_at": ticket.ResolutionDueAt,
	})
}

// ChangePriority recomputes deadlines and clears the dedup ledger.
func (h *TicketSlaHandler) ChangePriority(c *fiber.Ctx) error {
	var req priorityChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid body", nil)
	}
	priority := domain.TicketPriority(req.Priority)
	switch priority {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
	default:
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
	}

	ticket, err := h.slaService.ChangePriority(c.UserContext(), c.Params("ticketID"), priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ticket_id":         ticket.ID,
		"priority":          ticket.Priority,
		"response_due_at":   ticket.ResponseDueAt,
		"resolution_due_at": ticket.ResolutionDueAt,
	})
}

// FirstResponse marks the response SLA satisfied.
func (h *TicketSlaHandler) FirstResponse(c *fiber.Ctx) error {
	if err := h.slaService.RecordFirstResponse(c.UserContext(), c.Params("ticketID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resolve stops both SLA clocks.
func (h *TicketSlaHandler) Resolve(c *fiber.Ctx) error {
	if err := h.slaService.Resolve(c.UserContext(), c.Params("ticketID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Close stops both SLA clocks.
func (h *TicketSlaHandler) Close(c *fiber.Ctx) error {
	if err := h.slaService.Close(c.UserContext(), c.Params("ticketID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
