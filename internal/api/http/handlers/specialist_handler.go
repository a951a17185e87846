package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/service"
)

const (
	personalInboxPath   = "/specialist_dashboard/personal/"
	departmentInboxPath = "/specialist_dashboard/department/"
)

// SpecialistHandler serves the specialist inboxes, claim page and ticket threads.
type SpecialistHandler struct {
	inbox   *service.InboxService
	triage  *service.TriageService
	tickets *service.TicketService
	stats   *service.StatisticsService
}

// SpecialistDependencies bundles services.
type SpecialistDependencies struct {
	Inbox      *service.InboxService
	Triage     *service.TriageService
	Tickets    *service.TicketService
	Statistics *service.StatisticsService
}

// NewSpecialistHandler constructs handler.
func NewSpecialistHandler(deps SpecialistDependencies) *SpecialistHandler {
	return &SpecialistHandler{
		inbox:   deps.Inbox,
		triage:  deps.Triage,
		tickets: deps.Tickets,
		stats:   deps.Statistics,
	}
}

// category resolves :ticket_type; unknown values answer a redirect to the personal inbox.
func category(c *fiber.Ctx) (domain.InboxCategory, bool) {
	return domain.ParseInboxCategory(c.Params("ticket_type"))
}

// Dashboard GET /specialist_dashboard/:ticket_type/.
func (h *SpecialistHandler) Dashboard(c *fiber.Ctx) error {
	cat, ok := category(c)
	if !ok {
		return seeOther(c, personalInboxPath)
	}
	return h.renderInbox(c, cat, nil)
}

// DashboardAction POST /specialist_dashboard/:ticket_type/ with unclaim or reroute.
func (h *SpecialistHandler) DashboardAction(c *fiber.Ctx) error {
	cat, ok := category(c)
	if !ok {
		return seeOther(c, personalInboxPath)
	}
	var req dto.InboxActionRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	var notices []service.Notice
	switch {
	case req.Unclaim != "":
		if id, ok := req.Unclaim.Int64(); ok {
			if _, err := h.triage.Unclaim(ctx, actor(c), id); err != nil {
				return err
			}
		}
	case req.Structured():
		res, err := h.triage.Reroute(ctx, actor(c), service.RerouteRequest{
			TicketID:           req.RerouteTicket.OrZero(),
			TargetDepartmentID: req.RerouteDepartment.OrZero(),
		})
		if err != nil {
			return err
		}
		if res.Notice != nil {
			notices = append(notices, *res.Notice)
		}
	default:
		res, err := h.triage.RerouteByToken(ctx, actor(c), req.Reroute)
		if err != nil {
			return err
		}
		if res.Notice != nil {
			notices = append(notices, *res.Notice)
		}
	}
	return h.renderInbox(c, cat, notices)
}

func (h *SpecialistHandler) renderInbox(c *fiber.Ctx, cat domain.InboxCategory, notices []service.Notice) error {
	params := query.NormalizeFilterParams(c.Queries(), service.InboxTextFields...)
	view, err := h.inbox.List(c.UserContext(), actor(c), cat, params, page(c, service.SpecialistPageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ticket_type":     view.Category,
		"inbox_type":      view.Title,
		"department_name": view.DepartmentName,
		"tickets":         query.Map(view.Tickets, ticketViewResponse),
		"departments":     departmentResponses(view.RerouteTargets),
		"filter_method":   params.Method,
		"messages":        append(view.Messages, notices...),
	})
}

// ClaimCandidate GET /specialist_claim_ticket/:id.
func (h *SpecialistHandler) ClaimCandidate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return seeOther(c, departmentInboxPath)
	}
	candidate, err := h.triage.CheckClaimCandidate(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	if candidate == nil {
		return seeOther(c, departmentInboxPath)
	}
	resp := fiber.Map{
		"ticket":          ticketResponse(candidate.Ticket),
		"department_name": candidate.DepartmentName,
	}
	if candidate.FirstMessage != nil {
		resp["message"] = messageResponse(*candidate.FirstMessage)
	}
	return c.JSON(resp)
}

// Claim POST /specialist_claim_ticket/:id with accept_ticket.
func (h *SpecialistHandler) Claim(c *fiber.Ctx) error {
	var req dto.ClaimRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}
	var ticketID int64
	if req.AcceptTicket != "" {
		id, ok := req.AcceptTicket.Int64()
		if !ok {
			return seeOther(c, departmentInboxPath)
		}
		ticketID = id
	} else {
		id, err := pathID(c, "id")
		if err != nil {
			return seeOther(c, departmentInboxPath)
		}
		ticketID = id
	}
	outcome, err := h.triage.Claim(c.UserContext(), actor(c), ticketID)
	if err != nil {
		return err
	}
	if outcome == service.ClaimClaimed {
		return seeOther(c, personalInboxPath)
	}
	return seeOther(c, departmentInboxPath)
}

// Thread GET /specialist_message/:id.
func (h *SpecialistHandler) Thread(c *fiber.Ctx) error {
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

// ThreadAction POST /specialist_message/:id: view closes and returns to the personal inbox,
// content appends a specialist message.
func (h *SpecialistHandler) ThreadAction(c *fiber.Ctx) error {
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
		return seeOther(c, personalInboxPath)
	}
	msg, err := h.tickets.AddMessage(c.UserContext(), actor(c), id, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(*msg)})
}

// Statistics GET /specialist_statistics.
func (h *SpecialistHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.stats.ForSpecialist(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
