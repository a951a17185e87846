package handlers

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/validation"
)

// FAQHandler serves the public FAQ pages and the specialist FAQ and subsection workspaces.
type FAQHandler struct {
	faqs        *service.FAQService
	subsections *service.SubsectionService
	tickets     *service.TicketService
	validator   *validation.Validator
}

// NewFAQHandler constructs handler. tickets backs FAQ authoring from a ticket thread.
func NewFAQHandler(faqs *service.FAQService, subsections *service.SubsectionService, tickets *service.TicketService, v *validation.Validator) *FAQHandler {
	return &FAQHandler{faqs: faqs, subsections: subsections, tickets: tickets, validator: v}
}

// Departments GET /faq/.
func (h *FAQHandler) Departments(c *fiber.Ctx) error {
	depts, err := h.faqs.ListDepartments(c.UserContext(), page(c, service.FAQDepartmentsPageSize))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"departments": query.Map(depts, departmentResponse)})
}

// Department GET /faq/:department with the department slug.
func (h *FAQHandler) Department(c *fiber.Ctx) error {
	res, err := h.faqs.DepartmentFAQ(c.UserContext(), c.Params("department"), page(c, service.DepartmentFAQPageSize))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// MyFAQs GET /specialist_faq/.
func (h *FAQHandler) MyFAQs(c *fiber.Ctx) error {
	mine, err := h.faqs.ListMine(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	faqs := make([]dto.FAQResponse, 0, len(mine.FAQs))
	for _, f := range mine.FAQs {
		faqs = append(faqs, faqResponse(f.FAQ, f.SubsectionName))
	}
	subs := make([]dto.SubsectionResponse, 0, len(mine.Subsections))
	for _, s := range mine.Subsections {
		subs = append(subs, subsectionResponse(s))
	}
	return c.JSON(fiber.Map{"faqs": faqs, "subsections": subs})
}

// CreateFAQ POST /specialist_faq/.
func (h *FAQHandler) CreateFAQ(c *fiber.Ctx) error {
	var req dto.FAQRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	faq, err := h.faqs.Create(c.UserContext(), actor(c), service.FAQInput{
		SubsectionID: req.Subsection,
		Question:     req.Question,
		Answer:       req.Answer,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": faqResponse(*faq, "")})
}

// FromTicket GET /specialist_faq/from_ticket/:id shows the thread newest first next to the
// subsections a new FAQ can be filed under.
func (h *FAQHandler) FromTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	thread, err := h.tickets.Thread(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	subs, err := h.subsections.List(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	msgs := slices.Clone(thread.Messages)
	slices.Reverse(msgs)
	messages := make([]dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		messages = append(messages, messageResponse(m))
	}
	out := make([]dto.SubsectionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, subsectionResponse(s))
	}
	return c.JSON(fiber.Map{
		"ticket":      ticketResponse(thread.Ticket),
		"messages":    messages,
		"subsections": out,
	})
}

// CreateFromTicket POST /specialist_faq/from_ticket/:id files a FAQ and returns to the personal inbox.
// The caller must be able to see the ticket.
func (h *FAQHandler) CreateFromTicket(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.FAQRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	if _, err := h.tickets.Thread(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	if _, err := h.faqs.Create(c.UserContext(), actor(c), service.FAQInput{
		SubsectionID: req.Subsection,
		Question:     req.Question,
		Answer:       req.Answer,
	}); err != nil {
		return err
	}
	return seeOther(c, personalInboxPath)
}

// UpdateFAQ PUT /specialist_faq/:id.
func (h *FAQHandler) UpdateFAQ(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.FAQUpdateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	faq, err := h.faqs.Update(c.UserContext(), actor(c), id, service.FAQInput{
		SubsectionID: req.Subsection,
		Question:     req.Question,
		Answer:       req.Answer,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": faqResponse(*faq, "")})
}

// DeleteFAQ DELETE /specialist_faq/:id.
func (h *FAQHandler) DeleteFAQ(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.faqs.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Subsections GET /subsections/.
func (h *FAQHandler) Subsections(c *fiber.Ctx) error {
	subs, err := h.subsections.List(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	out := make([]dto.SubsectionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, subsectionResponse(s))
	}
	return c.JSON(fiber.Map{"subsections": out})
}

// CreateSubsection POST /subsections/.
func (h *FAQHandler) CreateSubsection(c *fiber.Ctx) error {
	var req dto.SubsectionRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	sub, err := h.subsections.Create(c.UserContext(), actor(c), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": subsectionResponse(*sub)})
}

// RenameSubsection PUT /subsections/:id.
func (h *FAQHandler) RenameSubsection(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SubsectionRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	sub, err := h.subsections.Rename(c.UserContext(), actor(c), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subsectionResponse(*sub)})
}

// DeleteSubsection DELETE /subsections/:id.
func (h *FAQHandler) DeleteSubsection(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.subsections.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
