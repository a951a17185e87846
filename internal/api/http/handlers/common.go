package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/validation"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// actor returns the authenticated user or nil; services authorize on it.
func actor(c *fiber.Ctx) *domain.User {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil {
		return nil
	}
	return principal.User
}

// bind parses a JSON or form body and validates it. An empty body leaves dst zeroed.
func bind(c *fiber.Ctx, v *validation.Validator, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if v == nil {
		return nil
	}
	return v.Struct(dst)
}

// pathID reads a positive integer path parameter.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound(name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// optionalID reads a positive integer query parameter; anything else is absent.
func optionalID(c *fiber.Ctx, name string) *int64 {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func page(c *fiber.Ctx, size int) query.Page {
	return query.ParsePage(c.Query("page"), size)
}

func seeOther(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusSeeOther)
}

func ticketResponse(t domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           t.ID,
		Header:       t.Header,
		Status:       t.Status,
		DepartmentID: t.DepartmentID,
		StudentID:    t.StudentID,
	}
}

func ticketViewResponse(v domain.TicketView) dto.TicketResponse {
	out := ticketResponse(v.Ticket)
	out.DepartmentName = v.DepartmentName
	out.StudentEmail = v.StudentEmail
	out.ClaimedBy = v.ClaimedBy
	return out
}

func messageResponse(m domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:          m.ID,
		AuthorKind:  m.AuthorKind,
		ResponderID: m.ResponderID,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func threadResponse(t domain.Ticket, msgs []domain.Message) dto.ThreadResponse {
	out := dto.ThreadResponse{Ticket: ticketResponse(t), Messages: make([]dto.MessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, messageResponse(m))
	}
	return out
}

func userResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

func userViewResponse(v domain.UserView) dto.UserResponse {
	out := userResponse(v.User)
	out.DepartmentID = v.DepartmentID
	out.DepartmentName = v.DepartmentName
	return out
}

func departmentResponse(d domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{ID: d.ID, Name: d.Name, Slug: d.Slug}
}

func departmentResponses(depts []domain.Department) []dto.DepartmentResponse {
	out := make([]dto.DepartmentResponse, 0, len(depts))
	for _, d := range depts {
		out = append(out, departmentResponse(d))
	}
	return out
}

func subsectionResponse(s domain.Subsection) dto.SubsectionResponse {
	return dto.SubsectionResponse{ID: s.ID, DepartmentID: s.DepartmentID, Name: s.Name}
}

func faqResponse(f domain.FAQ, subsection string) dto.FAQResponse {
	return dto.FAQResponse{
		ID:             f.ID,
		SubsectionID:   f.SubsectionID,
		SubsectionName: subsection,
		Question:       f.Question,
		Answer:         f.Answer,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
