package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	statsCachePrefix = "stats:"
	directorStatsKey = statsCachePrefix + "director"
	directorStatsTTL = time.Minute
)

// StatsCache is the JSON cache director statistics are kept in.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// StatisticsService computes the specialist and director statistics pages.
type StatisticsService struct {
	stats       repository.StatisticsRepository
	departments repository.DepartmentRepository
	access      ticketAccess
	cache       StatsCache
	logger      *zap.Logger
}

// StatisticsDependencies bundles repositories.
type StatisticsDependencies struct {
	StatisticsRepo           repository.StatisticsRepository
	DepartmentRepo           repository.DepartmentRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	Cache                    StatsCache
	Logger                   *zap.Logger
}

// NewStatisticsService creates the service.
func NewStatisticsService(deps StatisticsDependencies) *StatisticsService {
	return &StatisticsService{
		stats:       deps.StatisticsRepo,
		departments: deps.DepartmentRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo},
		cache:       deps.Cache,
		logger:      loggerOrNop(deps.Logger),
	}
}

// ForSpecialist summarizes the caller's department. Unassigned specialists get zeroes.
func (s *StatisticsService) ForSpecialist(ctx context.Context, actor *domain.User) (*domain.DepartmentStatistics, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	deptID, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := &domain.DepartmentStatistics{}
	if deptID == nil {
		return out, nil
	}
	dept, err := s.departments.GetByID(ctx, *deptID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out.DepartmentID = dept.ID
	out.DepartmentName = dept.Name

	if out.Tickets, err = s.stats.DepartmentTicketCounts(ctx, dept.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.LatestResponseAt, err = s.stats.LatestResponseAt(ctx, dept.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.AverageMessagesPerTicket, err = s.stats.AverageMessagesPerTicket(ctx, dept.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return out, nil
}

// DirectorStatistics is the director statistics page.
type DirectorStatistics struct {
	Departments []domain.DepartmentTicketCounts `json:"departments"`
	Users       map[domain.Role]int64           `json:"users"`
}

// ForDirector returns per-department ticket counts and user counts by role, cached briefly.
func (s *StatisticsService) ForDirector(ctx context.Context, actor *domain.User) (*DirectorStatistics, error) {
	if err := requireRole(actor, domain.RoleDirector); err != nil {
		return nil, err
	}
	if s.cache != nil {
		var cached DirectorStatistics
		err := s.cache.Get(ctx, directorStatsKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("statistics cache read failed", zap.Error(err))
		}
	}

	depts, err := s.stats.TicketCountsByDepartment(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	users, err := s.stats.UserCountsByRole(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.DepartmentTicketCounts{}
	}
	out := &DirectorStatistics{Departments: depts, Users: users}

	if s.cache != nil {
		if err := s.cache.Set(ctx, directorStatsKey, out, directorStatsTTL); err != nil {
			s.logger.Warn("statistics cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

// Invalidate drops cached statistics after structural changes.
func (s *StatisticsService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCachePrefix+"*"); err != nil {
		s.logger.Warn("statistics cache invalidation failed", zap.Error(err))
	}
}
