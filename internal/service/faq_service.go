package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// FAQService covers specialist FAQ authoring and the public FAQ pages.
type FAQService struct {
	faqs        repository.FAQRepository
	subsections repository.SubsectionRepository
	departments repository.DepartmentRepository
	access      ticketAccess
	logger      *zap.Logger
}

// FAQDependencies bundles repositories.
type FAQDependencies struct {
	FAQRepo                  repository.FAQRepository
	SubsectionRepo           repository.SubsectionRepository
	DepartmentRepo           repository.DepartmentRepository
	SpecialistDepartmentRepo repository.SpecialistDepartmentRepository
	Logger                   *zap.Logger
}

// NewFAQService creates the service.
func NewFAQService(deps FAQDependencies) *FAQService {
	return &FAQService{
		faqs:        deps.FAQRepo,
		subsections: deps.SubsectionRepo,
		departments: deps.DepartmentRepo,
		access:      ticketAccess{assignments: deps.SpecialistDepartmentRepo},
		logger:      loggerOrNop(deps.Logger),
	}
}

// FAQInput is the specialist FAQ form.
type FAQInput struct {
	SubsectionID int64
	Question     string
	Answer       string
}

// MyFAQs is the specialist FAQ workspace.
type MyFAQs struct {
	FAQs        []domain.FAQView    `json:"faqs"`
	Subsections []domain.Subsection `json:"subsections"`
}

// ListMine returns the caller's FAQs and the subsections they can file under.
func (s *FAQService) ListMine(ctx context.Context, actor *domain.User) (*MyFAQs, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	faqs, err := s.faqs.ListBySpecialist(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := &MyFAQs{FAQs: faqs, Subsections: []domain.Subsection{}}
	if out.FAQs == nil {
		out.FAQs = []domain.FAQView{}
	}
	dept, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if dept != nil {
		subs, err := s.subsections.ListByDepartment(ctx, *dept)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if subs != nil {
			out.Subsections = subs
		}
	}
	return out, nil
}

// subsectionInDepartment verifies the subsection belongs to the caller's department.
func (s *FAQService) subsectionInDepartment(ctx context.Context, actor *domain.User, subsectionID int64) (*domain.Subsection, error) {
	dept, err := s.access.departmentOf(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if dept == nil {
		return nil, apperrors.NewForbidden("no department assigned")
	}
	sub, err := s.subsections.GetByID(ctx, subsectionID)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewValidationError("validation failed", map[string]any{"subsection": NoticeSelectValidOption})
		}
		return nil, apperrors.MapError(err)
	}
	if sub.DepartmentID != *dept {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"subsection": NoticeSelectValidOption})
	}
	return sub, nil
}

func checkFAQInput(in FAQInput) error {
	details := map[string]any{}
	if strings.TrimSpace(in.Question) == "" {
		details["question"] = "This field is required."
	}
	if strings.TrimSpace(in.Answer) == "" {
		details["answer"] = "This field is required."
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

// Create files a FAQ under a subsection of the caller's department.
func (s *FAQService) Create(ctx context.Context, actor *domain.User, in FAQInput) (*domain.FAQ, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	if err := checkFAQInput(in); err != nil {
		return nil, err
	}
	sub, err := s.subsectionInDepartment(ctx, actor, in.SubsectionID)
	if err != nil {
		return nil, err
	}
	faq := &domain.FAQ{
		SpecialistID: actor.ID,
		DepartmentID: sub.DepartmentID,
		SubsectionID: sub.ID,
		Question:     strings.TrimSpace(in.Question),
		Answer:       strings.TrimSpace(in.Answer),
	}
	if err := s.faqs.Create(ctx, faq); err != nil {
		return nil, apperrors.MapError(err)
	}
	return faq, nil
}

// own loads a FAQ authored by the caller.
func (s *FAQService) own(ctx context.Context, actor *domain.User, id int64) (*domain.FAQ, error) {
	if err := requireRole(actor, domain.RoleSpecialist); err != nil {
		return nil, err
	}
	faq, err := s.faqs.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("faq", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if faq.SpecialistID != actor.ID {
		return nil, apperrors.NewForbidden("faq belongs to another specialist")
	}
	return faq, nil
}

// Update edits one of the caller's FAQs.
func (s *FAQService) Update(ctx context.Context, actor *domain.User, id int64, in FAQInput) (*domain.FAQ, error) {
	faq, err := s.own(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkFAQInput(in); err != nil {
		return nil, err
	}
	if in.SubsectionID != 0 && in.SubsectionID != faq.SubsectionID {
		sub, err := s.subsectionInDepartment(ctx, actor, in.SubsectionID)
		if err != nil {
			return nil, err
		}
		faq.SubsectionID = sub.ID
	}
	faq.Question = strings.TrimSpace(in.Question)
	faq.Answer = strings.TrimSpace(in.Answer)
	if err := s.faqs.Update(ctx, faq); err != nil {
		return nil, apperrors.MapError(err)
	}
	return faq, nil
}

// Delete removes one of the caller's FAQs.
func (s *FAQService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if _, err := s.own(ctx, actor, id); err != nil {
		return err
	}
	return apperrors.MapError(s.faqs.Delete(ctx, id))
}

// ListDepartments pages the public FAQ index.
func (s *FAQService) ListDepartments(ctx context.Context, page query.Page) (query.Paginated[domain.Department], error) {
	items, total, err := s.departments.List(ctx, repository.DepartmentFilter{Page: page})
	if err != nil {
		return query.Paginated[domain.Department]{}, apperrors.MapError(err)
	}
	return query.NewPaginated(items, page, total), nil
}

// FAQGroup is the FAQs of one subsection.
type FAQGroup struct {
	Subsection string       `json:"subsection"`
	FAQs       []domain.FAQ `json:"faqs"`
}

// DepartmentFAQ is the public FAQ page of one department.
type DepartmentFAQ struct {
	Department domain.Department `json:"department"`
	Groups     []FAQGroup        `json:"groups"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
}

// DepartmentFAQ pages a department's FAQs ordered by question and groups each page by subsection.
func (s *FAQService) DepartmentFAQ(ctx context.Context, slug string, page query.Page) (*DepartmentFAQ, error) {
	dept, err := s.departments.GetBySlug(ctx, slug)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFound("department", map[string]any{"slug": slug})
		}
		return nil, apperrors.MapError(err)
	}
	items, total, err := s.faqs.ListByDepartment(ctx, dept.ID, page)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	p := query.NewPaginated(items, page, total)
	return &DepartmentFAQ{
		Department: *dept,
		Groups:     groupBySubsection(items),
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext,
	}, nil
}

// groupBySubsection keeps the first-seen order of subsections.
func groupBySubsection(items []domain.FAQView) []FAQGroup {
	groups := []FAQGroup{}
	index := map[string]int{}
	for _, item := range items {
		i, ok := index[item.SubsectionName]
		if !ok {
			i = len(groups)
			index[item.SubsectionName] = i
			groups = append(groups, FAQGroup{Subsection: item.SubsectionName})
		}
		groups[i].FAQs = append(groups[i].FAQs, item.FAQ)
	}
	return groups
}
