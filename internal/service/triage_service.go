package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ClaimRecorder counts claim outcomes.
type ClaimRecorder interface {
	RecordClaim(outcome string)
}

// ClaimOutcome describes what Claim did.
type ClaimOutcome string

const (
	ClaimClaimed  ClaimOutcome = "claimed"
	ClaimMissing  ClaimOutcome = "missing"
	ClaimConflict ClaimOutcome = "conflict"
)

// TriageService implements claim, unclaim, reroute and close.
type TriageService struct {
	tickets     repository.TicketRepository
	claims      repository.ClaimRepository
	departments repository.DepartmentRepository
	messages    repository.MessageRepository
	access      ticketAccess
	dispatcher  events.Dispatcher
	metrics     ClaimRecorder
	logger      *zap.Logger
}

// TriageDependencies bundles repositories.
type TriageDependencies struct {
	TicketRepo               repository.TicketRepository
	ClaimRepo                repository.ClaimRepository
	DepartmentRepo           repository.DepartmentRepository
	MessageRepo              repository.MessageRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	Dispatcher               events.Dispatcher
	Metrics                  ClaimRecorder
	Logger                   *zap.Logger
}

// NewTriageService creates the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	return &TriageService{
		tickets:     deps.TicketRepo,
		claims:      deps.ClaimRepo,
		departments: deps.DepartmentRepo,
		messages:    deps.MessageRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo, claims: deps.ClaimRepo},
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      loggerOrNop(deps.Logger),
	}
}

func (s *TriageService) recordClaim(outcome ClaimOutcome) {
	if s.metrics != nil {
		s.metrics.RecordClaim(string(outcome))
	}
}

// ClaimCandidate is what a specialist sees before claiming.
type ClaimCandidate struct {
	Ticket         domain.Ticket   `json:"ticket"`
	FirstMessage   *domain.Message `json:"message,omitempty"`
	DepartmentName string          `json:"department_name"`
}

// CheckClaimCandidate returns nil when the ticket is not in the specialist's department pool:
// unknown, closed, claimed, or in another department. Callers redirect back to the pool.
func (s *TriageService) CheckClaimCandidate(ctx context.Context, actor *domain.User, ticketID int64) (*ClaimCandidate, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	deptID, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if deptID == nil || *deptID != ticket.DepartmentID || ticket.Status != domain.TicketStatusOpen {
		return nil, nil
	}
	holder, err := s.access.claimHolder(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if holder != 0 {
		return nil, nil
	}

	candidate := &ClaimCandidate{Ticket: *ticket}
	if dept, err := s.departments.GetByID(ctx, ticket.DepartmentID); err == nil {
		candidate.DepartmentName = dept.Name
	} else if !isNoRows(err) {
		return nil, apperrors.MapError(err)
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(msgs) > 0 {
		candidate.FirstMessage = &msgs[0]
	}
	return candidate, nil
}

// Claim takes ownership of an open ticket in the specialist's department. Unknown tickets and
// tickets outside the department are a silent no-op. Losing a concurrent claim is a CONFLICT.
func (s *TriageService) Claim(ctx context.Context, actor *domain.User, ticketID int64) (ClaimOutcome, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return "", err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNoRows(err) {
			s.recordClaim(ClaimMissing)
			return ClaimMissing, nil
		}
		return "", apperrors.MapError(err)
	}
	deptID, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if deptID == nil || *deptID != ticket.DepartmentID {
		s.recordClaim(ClaimMissing)
		return ClaimMissing, nil
	}

	claim, err := s.claims.Claim(ctx, actor.ID, ticketID)
	switch {
	case err == nil:
	case isNoRows(err):
		s.recordClaim(ClaimMissing)
		return ClaimMissing, nil
	case errors.Is(err, repository.ErrTicketAlreadyClaimed):
		s.recordClaim(ClaimConflict)
		return ClaimConflict, apperrors.NewConflict("ticket already claimed", map[string]any{"ticket_id": ticketID})
	case errors.Is(err, repository.ErrTicketClosed):
		s.recordClaim(ClaimConflict)
		return ClaimConflict, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticketID})
	default:
		return "", apperrors.MapError(err)
	}

	s.recordClaim(ClaimClaimed)
	publish(ctx, s.dispatcher, events.New(events.EventTicketClaimed, ticketID, actorOf(actor),
		events.TicketClaimPayload{SpecialistID: claim.SpecialistID}))
	return ClaimClaimed, nil
}

// Unclaim releases the caller's claim. Releasing a ticket the caller does not hold is a no-op.
func (s *TriageService) Unclaim(ctx context.Context, actor *domain.User, ticketID int64) (bool, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return false, err
	}
	released, err := s.claims.Release(ctx, actor.ID, ticketID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if released {
		publish(ctx, s.dispatcher, events.New(events.EventTicketUnclaimed, ticketID, actorOf(actor),
			events.TicketClaimPayload{SpecialistID: actor.ID}))
	}
	return released, nil
}

// RerouteRequest identifies a ticket and its target department. TargetDepartmentID <= 0 means
// nothing was selected.
type RerouteRequest struct {
	TicketID           int64
	TargetDepartmentID int64
}

// RerouteResult reports what happened; Notice is set when the user must fix their input.
type RerouteResult struct {
	Moved  bool
	Notice *Notice
}

// ParseRerouteToken splits the legacy "<department name> <ticket id>" value on its last
// whitespace, so department names that end in digits stay intact.
func ParseRerouteToken(token string) (departmentName string, ticketID int64, ok bool) {
	token = strings.TrimSpace(token)
	idx := strings.LastIndexAny(token, " \t")
	if idx <= 0 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(token[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	name := strings.TrimSpace(token[:idx])
	if name == "" {
		return "", 0, false
	}
	return name, id, true
}

// RerouteByToken resolves the legacy combined token and reroutes.
func (s *TriageService) RerouteByToken(ctx context.Context, actor *domain.User, token string) (*RerouteResult, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" || token == "0" {
		n := infoNotice(NoticeSelectValidOption)
		return &RerouteResult{Notice: &n}, nil
	}
	name, ticketID, ok := ParseRerouteToken(token)
	if !ok {
		return &RerouteResult{}, nil
	}
	dept, err := s.departments.GetByName(ctx, name)
	if err != nil {
		if isNoRows(err) {
			return &RerouteResult{}, nil
		}
		return nil, apperrors.MapError(err)
	}
	return s.Reroute(ctx, actor, RerouteRequest{TicketID: ticketID, TargetDepartmentID: dept.ID})
}

// Reroute moves an open ticket to another department and drops any claim in the same
// transaction. The caller must hold the claim or belong to the ticket's department. Unknown
// tickets or departments are a silent no-op.
func (s *TriageService) Reroute(ctx context.Context, actor *domain.User, req RerouteRequest) (*RerouteResult, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	if req.TargetDepartmentID <= 0 {
		n := infoNotice(NoticeSelectValidOption)
		return &RerouteResult{Notice: &n}, nil
	}

	ticket, err := s.tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		if isNoRows(err) {
			return &RerouteResult{}, nil
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.departments.GetByID(ctx, req.TargetDepartmentID); err != nil {
		if isNoRows(err) {
			return &RerouteResult{}, nil
		}
		return nil, apperrors.MapError(err)
	}
	allowed, err := s.access.specialistCanAct(ctx, actor.ID, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return &RerouteResult{}, nil
	}

	moved, err := s.tickets.Reroute(ctx, ticket.ID, req.TargetDepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if moved {
		publish(ctx, s.dispatcher, events.New(events.EventTicketRerouted, ticket.ID, actorOf(actor),
			events.TicketReroutedPayload{FromDepartmentID: ticket.DepartmentID, ToDepartmentID: req.TargetDepartmentID}))
	}
	return &RerouteResult{Moved: moved}, nil
}

// Close sets the ticket CLOSED and releases its claim atomically. Students may close their own
// tickets; specialists those they can act on. An unknown ticket is a silent no-op.
func (s *TriageService) Close(ctx context.Context, actor *domain.User, ticketID int64) (bool, error) {
	if err := requireRole(actor, domain.RoleStudent, domain.RoleSpecialist); err != nil {
		return false, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}

	switch actor.Role {
	case domain.RoleStudent:
		if ticket.StudentID != actor.ID {
			return false, apperrors.NewForbidden("ticket belongs to another student")
		}
	case domain.RoleSpecialist:
		allowed, err := s.access.specialistCanAct(ctx, actor.ID, ticket)
		if err != nil {
			return false, apperrors.MapError(err)
		}
		if !allowed {
			return false, apperrors.NewForbidden("ticket outside your department")
		}
	}

	closed, err := s.tickets.Close(ctx, ticket.ID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if closed {
		publish(ctx, s.dispatcher, events.New(events.EventTicketClosed, ticket.ID, actorOf(actor),
			events.TicketClosedPayload{ClosedBy: actor.Role}))
	}
	return closed, nil
}
