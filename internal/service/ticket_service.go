package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService covers the student side of tickets and the shared message thread.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.MessageRepository
	departments repository.DepartmentRepository
	access      ticketAccess
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles repositories.
type TicketDependencies struct {
	TicketRepo               repository.TicketRepository
	MessageRepo              repository.MessageRepository
	DepartmentRepo           repository.DepartmentRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	ClaimRepo                repository.ClaimRepository
	Dispatcher               events.Dispatcher
	Logger                   *zap.Logger
}

// NewTicketService creates the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		departments: deps.DepartmentRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo, claims: deps.ClaimRepo},
		dispatcher:  deps.Dispatcher,
		logger:      loggerOrNop(deps.Logger),
	}
}

// CreateTicketInput is the student's new ticket form.
type CreateTicketInput struct {
	DepartmentID int64
	Header       string
	Message      string
}

// Create opens a ticket with its first message in one transaction.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, in CreateTicketInput) (*domain.Ticket, error) {
	if err := requireRole(actor, domain.RoleStudent); err != nil {
		return nil, err
	}
	if _, err := s.departments.GetByID(ctx, in.DepartmentID); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewValidationError(NoticeSelectValidOption, map[string]any{"department": NoticeSelectValidOption})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		StudentID:    actor.ID,
		DepartmentID: in.DepartmentID,
		Header:       strings.TrimSpace(in.Header),
		Status:       domain.TicketStatusOpen,
	}
	first := &domain.Message{AuthorKind: domain.AuthorStudent, Content: in.Message}
	if err := s.tickets.Create(ctx, ticket, first); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.New(events.EventTicketCreated, ticket.ID, actorOf(actor),
		events.TicketCreatedPayload{DepartmentID: ticket.DepartmentID, Header: ticket.Header}))
	s.logger.Info("ticket created", zap.Int64("ticket_id", ticket.ID), zap.Int64("department_id", ticket.DepartmentID))
	return ticket, nil
}

// StudentInbox is the student dashboard page.
type StudentInbox struct {
	Tickets     query.Paginated[domain.TicketView] `json:"tickets"`
	Departments []domain.Department                `json:"departments"`
	Status      string                             `json:"type_of_ticket,omitempty"`
}

// ListForStudent pages the student's own tickets, optionally by status label (Open/Closed).
func (s *TicketService) ListForStudent(ctx context.Context, actor *domain.User, statusLabel string, page query.Page) (*StudentInbox, error) {
	if err := requireRole(actor, domain.RoleStudent); err != nil {
		return nil, err
	}
	filter := repository.StudentTicketFilter{StudentID: actor.ID, Page: page}
	if status, ok := domain.ParseTicketStatus(statusLabel); ok {
		filter.Status = &status
	} else {
		statusLabel = ""
	}
	items, total, err := s.tickets.ListByStudent(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	depts, err := s.departments.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &StudentInbox{
		Tickets:     query.NewPaginated(items, page, total),
		Departments: depts,
		Status:      statusLabel,
	}, nil
}

// Thread is a ticket with its messages in creation order.
type Thread struct {
	Ticket   domain.Ticket    `json:"ticket"`
	Messages []domain.Message `json:"messages"`
}

// authorize returns the ticket when the actor may read and write its thread.
func (s *TicketService) authorize(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	if err := requireRole(actor, domain.RoleStudent, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	switch actor.Role {
	case domain.RoleStudent:
		if ticket.StudentID != actor.ID {
			return nil, apperrors.NewForbidden("ticket belongs to another student")
		}
	default:
		ok, err := s.access.specialistCanAct(ctx, actor.ID, ticket)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !ok {
			return nil, apperrors.NewForbidden("ticket outside your department")
		}
	}
	return ticket, nil
}

// Thread loads the messages of a ticket the actor may see.
func (s *TicketService) Thread(ctx context.Context, actor *domain.User, ticketID int64) (*Thread, error) {
	ticket, err := s.authorize(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return &Thread{Ticket: *ticket, Messages: msgs}, nil
}

// AddMessage appends to an open ticket's thread.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.User, ticketID int64, content string) (*domain.Message, error) {
	ticket, err := s.authorize(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"message": "This field is required."})
	}
	if !ticket.IsOpen() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}

	msg := &domain.Message{TicketID: ticket.ID, Content: content, AuthorKind: domain.AuthorStudent}
	if actor.Role == domain.RoleSpecialist {
		id := actor.ID
		msg.AuthorKind = domain.AuthorSpecialist
		msg.ResponderID = &id
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.New(events.EventTicketMessageAdded, ticket.ID, actorOf(actor),
		events.TicketMessageAddedPayload{MessageID: msg.ID, AuthorKind: msg.AuthorKind, BodyPreview: stringPreview(content, 120)}))
	return msg, nil
}
