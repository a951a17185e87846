package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DepartmentTextFields are the text predicates of the department manager.
var DepartmentTextFields = []string{"name"}

// DirectorService implements the user panel, the role cascade and the department manager.
type DirectorService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	assignments repository.SpecialistDepartmentRepository
	claims      repository.ClaimRepository
	dispatcher  events.Dispatcher
	stats       StatsInvalidator
	bcryptCost  int
	logger      *zap.Logger
}

// StatsInvalidator drops cached statistics.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// DirectorDependencies bundles repositories.
type DirectorDependencies struct {
	UserRepo                 repository.UserRepository
	DepartmentRepo           repository.DepartmentRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	ClaimRepo                repository.ClaimRepository
	Dispatcher               events.Dispatcher
	Stats                    StatsInvalidator
	BcryptCost               int
	Logger                   *zap.Logger
}

// NewDirectorService creates the service.
func NewDirectorService(deps DirectorDependencies) *DirectorService {
	return &DirectorService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		assignments: deps.SpecialistDepartmentRepo,
		claims:      deps.ClaimRepo,
		dispatcher:  deps.Dispatcher,
		stats:       deps.Stats,
		bcryptCost:  deps.BcryptCost,
		logger:      loggerOrNop(deps.Logger),
	}
}

// RoleAssignment is a target role plus the department a specialist is bound to.
type RoleAssignment struct {
	Role         domain.Role
	DepartmentID *int64
}

// CreateUserInput is the director's new user form.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	RoleAssignment
}

// EditUserInput replaces profile fields and applies the role cascade.
type EditUserInput struct {
	Email     string
	FirstName string
	LastName  string
	IsActive  *bool
	RoleAssignment
}

// UserPanel is one page of the director user panel.
type UserPanel struct {
	Users       query.Paginated[domain.UserView] `json:"users"`
	Departments []domain.Department              `json:"departments"`
	Params      map[string]string                `json:"params"`
}

// ListUsers applies filter/search on email and names plus exact id, role and department.
func (s *DirectorService) ListUsers(ctx context.Context, actor *domain.User, params query.FilterParams, page query.Page) (*UserPanel, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	items, total, err := s.users.List(ctx, repository.UserFilter{Params: params, Page: page})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	depts, err := s.departments.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	echo := map[string]string{"filter_method": string(params.Method)}
	for k, v := range params.Text {
		echo[k] = v
	}
	return &UserPanel{Users: query.NewPaginated(items, page, total), Departments: depts, Params: echo}, nil
}

// CreateUser stores a new account with a bcrypt hash and applies its initial assignment.
func (s *DirectorService) CreateUser(ctx context.Context, actor *domain.User, in CreateUserInput) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"role": "Select a valid role."})
	}
	if err := s.checkAssignment(ctx, "", in.RoleAssignment); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !isNoRows(err) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"password": "This field is required."})
	}
	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	if user.Role == domain.RoleSpecialist {
		if _, err := s.assignments.Upsert(ctx, user.ID, *in.DepartmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	s.invalidateStats(ctx)
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// EditUser updates profile fields, then runs the role cascade.
func (s *DirectorService) EditUser(ctx context.Context, actor *domain.User, userID int64, in EditUserInput) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"role": "Select a valid role."})
	}
	if in.Role != "" {
		if err := s.checkAssignment(ctx, user.Role, in.RoleAssignment); err != nil {
			return nil, err
		}
	}

	if in.Email != "" {
		user.Email = domain.NormalizeEmail(in.Email)
	}
	if in.FirstName != "" {
		user.FirstName = strings.TrimSpace(in.FirstName)
	}
	if in.LastName != "" {
		user.LastName = strings.TrimSpace(in.LastName)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	if in.Role == "" {
		return user, nil
	}
	return s.applyRole(ctx, actor, user, in.RoleAssignment)
}

// SetRole changes one user's role and cascades the department assignment.
func (s *DirectorService) SetRole(ctx context.Context, actor *domain.User, userID int64, assignment RoleAssignment) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	if !assignment.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"role": "Select a valid role."})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.checkAssignment(ctx, user.Role, assignment); err != nil {
		return nil, err
	}
	return s.applyRole(ctx, actor, user, assignment)
}

// BulkSetRole applies SetRole to every selected user except the caller and returns the ids changed.
// Unknown ids are skipped.
func (s *DirectorService) BulkSetRole(ctx context.Context, actor *domain.User, userIDs []int64, assignment RoleAssignment) ([]int64, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	if !assignment.Role.Valid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"role": "Select a valid role."})
	}
	if assignment.Role == domain.RoleSpecialist {
		if err := s.checkAssignment(ctx, "", assignment); err != nil {
			return nil, err
		}
	}
	updated := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id == actor.ID {
			continue
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if isNoRows(err) {
				continue
			}
			return updated, apperrors.MapError(err)
		}
		if _, err := s.applyRole(ctx, actor, user, assignment); err != nil {
			return updated, err
		}
		updated = append(updated, id)
	}
	return updated, nil
}

// DeleteUsers removes the selected users, never the caller.
func (s *DirectorService) DeleteUsers(ctx context.Context, actor *domain.User, userIDs []int64) (int64, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id != actor.ID {
			ids = append(ids, id)
		}
	}
	n, err := s.users.Delete(ctx, ids)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	s.logger.Info("users deleted", zap.Int64("count", n), zap.Int64("director_id", actor.ID))
	return n, nil
}

// checkAssignment validates that promotions to specialist name an existing department.
// SPECIALIST to SPECIALIST may omit the department to keep the current assignment.
func (s *DirectorService) checkAssignment(ctx context.Context, current domain.Role, a RoleAssignment) error {
	if a.Role != domain.RoleSpecialist {
		return nil
	}
	if a.DepartmentID == nil || *a.DepartmentID <= 0 {
		if current == domain.RoleSpecialist {
			return nil
		}
		return apperrors.NewValidationError("validation failed", map[string]any{"department": NoticeSelectValidOption})
	}
	if _, err := s.departments.GetByID(ctx, *a.DepartmentID); err != nil {
		if isNoRows(err) {
			return apperrors.NewValidationError("validation failed", map[string]any{"department": NoticeSelectValidOption})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// applyRole persists the role and cascades the specialist department row:
// leaving SPECIALIST deletes it, becoming SPECIALIST creates it, SPECIALIST to SPECIALIST with a
// department updates it. Claims held by a demoted specialist are kept.
func (s *DirectorService) applyRole(ctx context.Context, actor *domain.User, user *domain.User, a RoleAssignment) (*domain.User, error) {
	oldRole := user.Role
	if oldRole != a.Role {
		if err := s.users.UpdateRole(ctx, user.ID, a.Role); err != nil {
			return nil, apperrors.MapError(err)
		}
		user.Role = a.Role
	}

	var deptChanged bool
	switch {
	case oldRole == domain.RoleSpecialist && a.Role != domain.RoleSpecialist:
		if _, err := s.assignments.Delete(ctx, user.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		deptChanged = true
		if n, err := s.claims.CountBySpecialist(ctx, user.ID); err == nil && n > 0 {
			s.logger.Warn("demoted specialist still holds claims",
				zap.Int64("user_id", user.ID),
				zap.Int64("claims", n))
		}
	case a.Role == domain.RoleSpecialist && a.DepartmentID != nil && *a.DepartmentID > 0:
		current, err := s.assignments.GetBySpecialist(ctx, user.ID)
		if err != nil && !isNoRows(err) {
			return nil, apperrors.MapError(err)
		}
		if current == nil || current.DepartmentID != *a.DepartmentID {
			if _, err := s.assignments.Upsert(ctx, user.ID, *a.DepartmentID); err != nil {
				return nil, apperrors.MapError(err)
			}
			deptChanged = true
		}
	}

	if oldRole != a.Role || deptChanged {
		s.invalidateStats(ctx)
		publish(ctx, s.dispatcher, events.New(events.EventUserRoleChanged, 0, actorOf(actor),
			events.UserRoleChangedPayload{UserID: user.ID, OldRole: oldRole, NewRole: a.Role, DepartmentID: a.DepartmentID}))
	}
	return user, nil
}

// DepartmentPage is one page of the department manager.
type DepartmentPage struct {
	Departments query.Paginated[domain.Department] `json:"departments"`
}

// ListDepartments filters departments by name and id.
func (s *DirectorService) ListDepartments(ctx context.Context, actor *domain.User, params query.FilterParams, page query.Page) (*DepartmentPage, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	items, total, err := s.departments.List(ctx, repository.DepartmentFilter{Params: params, Page: page})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &DepartmentPage{Departments: query.NewPaginated(items, page, total)}, nil
}

// CreateDepartment adds a department; names are unique.
func (s *DirectorService) CreateDepartment(ctx context.Context, actor *domain.User, name string) (*domain.Department, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"name": "This field is required."})
	}
	dept := &domain.Department{Name: name}
	if err := s.departments.Create(ctx, dept); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	return dept, nil
}

// RenameDepartment changes the name and slug.
func (s *DirectorService) RenameDepartment(ctx context.Context, actor *domain.User, id int64, name string) (*domain.Department, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"name": "This field is required."})
	}
	dept := &domain.Department{ID: id, Name: name}
	if err := s.departments.Update(ctx, dept); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("department", map[string]any{"id": id})
		}
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("department already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// DeleteDepartment removes the department and, through foreign keys, its tickets, subsections and FAQs.
func (s *DirectorService) DeleteDepartment(ctx context.Context, actor *domain.User, id int64) error {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return err
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return apperrors.NewNotFound("department", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.invalidateStats(ctx)
	s.logger.Info("department deleted", zap.Int64("department_id", id))
	return nil
}

func (s *DirectorService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}
