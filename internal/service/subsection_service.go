package service

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SubsectionService lets specialists manage the subsections of their own department.
type SubsectionService struct {
	subsections repository.SubsectionRepository
	access      ticketAccess
	logger      *zap.Logger
}

// SubsectionDependencies bundles repositories.
type SubsectionDependencies struct {
	SubsectionRepo           repository.SubsectionRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	Logger                   *zap.Logger
}

// NewSubsectionService creates the service.
func NewSubsectionService(deps SubsectionDependencies) *SubsectionService {
	return &SubsectionService{
		subsections: deps.SubsectionRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo},
		logger:      loggerOrNop(deps.Logger),
	}
}

func validSubsectionName(name string) error {
	if name == "" {
		return apperrors.NewValidationError("validation failed", map[string]any{"name": "This field is required."})
	}
	for _, r := range name {
		if unicode.IsDigit(r) {
			return apperrors.NewValidationError("validation failed", map[string]any{"name": "Names cannot contain numbers."})
		}
	}
	return nil
}

// department returns the caller's department or FORBIDDEN when unassigned.
func (s *SubsectionService) department(ctx context.Context, actor *domain.User) (int64, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return 0, err
	}
	dept, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if dept == nil {
		return 0, apperrors.NewForbidden("no department assigned")
	}
	return *dept, nil
}

// owned loads a subsection that belongs to the caller's department.
func (s *SubsectionService) owned(ctx context.Context, actor *domain.User, id int64) (*domain.Subsection, error) {
	deptID, err := s.department(ctx, actor)
	if err != nil {
		return nil, err
	}
	sub, err := s.subsections.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("subsection", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if sub.DepartmentID != deptID {
		return nil, apperrors.NewForbidden("subsection outside your department")
	}
	return sub, nil
}

// List returns the subsections of the caller's department.
func (s *SubsectionService) List(ctx context.Context, actor *domain.User) ([]domain.Subsection, error) {
	deptID, err := s.department(ctx, actor)
	if err != nil {
		return nil, err
	}
	subs, err := s.subsections.ListByDepartment(ctx, deptID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if subs == nil {
		subs = []domain.Subsection{}
	}
	return subs, nil
}

// Create adds a subsection to the caller's department. Names are unique and digit free.
func (s *SubsectionService) Create(ctx context.Context, actor *domain.User, name string) (*domain.Subsection, error) {
	deptID, err := s.department(ctx, actor)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validSubsectionName(name); err != nil {
		return nil, err
	}
	sub := &domain.Subsection{DepartmentID: deptID, Name: name}
	if err := s.subsections.Create(ctx, sub); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("subsection already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// Rename changes a subsection name.
func (s *SubsectionService) Rename(ctx context.Context, actor *domain.User, id int64, name string) (*domain.Subsection, error) {
	sub, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validSubsectionName(name); err != nil {
		return nil, err
	}
	if err := s.subsections.Rename(ctx, id, name); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("subsection already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	sub.Name = name
	return sub, nil
}

// Delete removes a subsection and its FAQs.
func (s *SubsectionService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.subsections.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("subsection deleted", zap.Int64("subsection_id", id), zap.Int64("specialist_id", actor.ID))
	return nil
}
