package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// InboxTextFields are the text predicates accepted by the specialist dashboard.
var InboxTextFields = []string{"email", "header"}

// InboxService computes the ticket set for one specialist inbox category.
type InboxService struct {
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	access      ticketAccess
	logger      *zap.Logger
}

// InboxDependencies bundles repositories.
type InboxDependencies struct {
	TicketRepo               repository.TicketRepository
	DepartmentRepo           repository.DepartmentRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	ClaimRepo                repository.ClaimRepository
	Logger                   *zap.Logger
}

// NewInboxService creates the service.
func NewInboxService(deps InboxDependencies) *InboxService {
	return &InboxService{
		tickets:     deps.TicketRepo,
		departments: deps.DepartmentRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo, claims: deps.ClaimRepo},
		logger:      loggerOrNop(deps.Logger),
	}
}

// InboxView is one rendered dashboard page.
type InboxView struct {
	Category       domain.InboxCategory               `json:"ticket_type"`
	Title          string                             `json:"inbox_type"`
	DepartmentName string                             `json:"department_name"`
	Tickets        query.Paginated[domain.TicketView] `json:"tickets"`
	// RerouteTargets lists the other departments; only filled for the personal inbox.
	RerouteTargets []domain.Department `json:"departments,omitempty"`
	Messages       []Notice            `json:"messages"`
}

// List returns the requested page of the category. Tickets are ordered by ascending id.
func (s *InboxService) List(ctx context.Context, actor *domain.User, category domain.InboxCategory, params query.FilterParams, page query.Page) (*InboxView, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}

	deptID, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	view := &InboxView{Category: category, Messages: []Notice{}}
	var dept *domain.Department
	if deptID != nil {
		dept, err = s.departments.GetByID(ctx, *deptID)
		if err != nil && !isNoRows(err) {
			return nil, apperrors.MapError(err)
		}
		if dept != nil {
			view.DepartmentName = dept.Name
		}
	}
	view.Title = category.Title(view.DepartmentName)

	items, total, err := s.tickets.ListInbox(ctx, repository.InboxFilter{
		SpecialistID: actor.ID,
		DepartmentID: deptID,
		Category:     category,
		Params:       params,
		Page:         page,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	view.Tickets = query.NewPaginated(items, page, total)

	if category == domain.InboxPersonal {
		all, err := s.departments.ListAll(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for _, d := range all {
			if deptID == nil || d.ID != *deptID {
				view.RerouteTargets = append(view.RerouteTargets, d)
			}
		}
	}

	s.logger.Debug("inbox listed",
		zap.Int64("specialist_id", actor.ID),
		zap.String("category", string(category)),
		zap.Int64("total", total))
	return view, nil
}
