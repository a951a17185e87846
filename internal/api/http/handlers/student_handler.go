package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/validation"
)

// StudentHandler serves the student dashboard and ticket pages.
type StudentHandler struct {
	tickets   *service.TicketService
	triage    *service.TriageService
	validator *validation.Validator
}

// NewStudentHandler constructs handler.
func NewStudentHandler(tickets *service.TicketService, triage *service.TriageService, v *validation.Validator) *StudentHandler {
	return &StudentHandler{tickets: tickets, triage: triage, validator: v}
}

// Dashboard GET /student_dashboard/?type_of_ticket=Open|Closed.
func (h *StudentHandler) Dashboard(c *fiber.Ctx) error {
	return h.renderDashboard(c, c.Query("type_of_ticket"))
}

// FilterDashboard POST /student_dashboard/ with a type_of_ticket body.
func (h *StudentHandler) FilterDashboard(c *fiber.Ctx) error {
	var req dto.StudentInboxRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}
	return h.renderDashboard(c, req.TypeOfTicket)
}

func (h *StudentHandler) renderDashboard(c *fiber.Ctx, status string) error {
	inbox, err := h.tickets.ListForStudent(c.UserContext(), actor(c), status, page(c, service.StudentPageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"tickets":        query.Map(inbox.Tickets, ticketViewResponse),
		"departments":    departmentResponses(inbox.Departments),
		"type_of_ticket": inbox.Status,
	})
}

// CreateTicket POST /ticket/.
func (h *StudentHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor(c), service.CreateTicketInput{
		DepartmentID: req.Department,
		Header:       req.Header,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(*ticket)})
}

// Ticket GET /ticket/:id/.
func (h *StudentHandler) Ticket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	thread, err := h.tickets.Thread(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": threadResponse(thread.Ticket, thread.Messages)})
}

// TicketAction POST /ticket/:id/: view closes the ticket, content appends a message.
func (h *StudentHandler) TicketAction(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ThreadActionRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}
	if req.View.Present() {
		if _, err := h.triage.Close(c.UserContext(), actor(c), id); err != nil {
			return err
		}
		return seeOther(c, "/student_dashboard/")
	}
	msg, err := h.tickets.AddMessage(c.UserContext(), actor(c), id, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(*msg)})
}
