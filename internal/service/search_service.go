package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/ranking"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RankingRecorder counts ranking stage outcomes.
type RankingRecorder interface {
	RecordRanking(stage, outcome string)
}

// Ranking stages, also used as metric labels.
const (
	StageDepartments = "departments"
	StageSubsections = "subsections"
	StageFAQs        = "faqs"
)

// SearchService drives the public search bar cascade: departments, then subsections, then FAQs.
type SearchService struct {
	scorer      ranking.Scorer
	departments repository.DepartmentRepository
	subsections repository.SubsectionRepository
	faqs        repository.FAQRepository
	cfg         config.RankingConfig
	metrics     RankingRecorder
	logger      *zap.Logger
}

// SearchDependencies bundles collaborators.
type SearchDependencies struct {
	Scorer         ranking.Scorer
	DepartmentRepo repository.DepartmentRepository
	SubsectionRepo repository.SubsectionRepository
	FAQRepo        repository.FAQRepository
	Config         config.RankingConfig
	Metrics        RankingRecorder
	Logger         *zap.Logger
}

// NewSearchService creates the service.
func NewSearchService(deps SearchDependencies) *SearchService {
	return &SearchService{
		scorer:      deps.Scorer,
		departments: deps.DepartmentRepo,
		subsections: deps.SubsectionRepo,
		faqs:        deps.FAQRepo,
		cfg:         deps.Config,
		metrics:     deps.Metrics,
		logger:      loggerOrNop(deps.Logger),
	}
}

// SearchRequest carries the query and the selectors picked so far.
type SearchRequest struct {
	Query        string
	DepartmentID *int64
	SubsectionID *int64
}

// SearchResult holds the stage that ran; the others stay empty.
type SearchResult struct {
	Query          string                   `json:"query"`
	DepartmentID   *int64                   `json:"department,omitempty"`
	SubsectionID   *int64                   `json:"subsection,omitempty"`
	TopDepartments []ranking.Ranked[int64]  `json:"top_departments"`
	TopSubsections []ranking.Ranked[int64]  `json:"top_subsections"`
	TopFAQs        []ranking.Ranked[string] `json:"top_FAQs"`
	Messages       []Notice                 `json:"messages"`
}

func topK(configured, fallback int) int {
	if configured <= 0 {
		return fallback
	}
	return configured
}

// Search runs only the deepest stage the request selects. An empty query ranks nothing.
// Scorer failures never fail the request: partial results are kept and a notice is queued.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	res := &SearchResult{
		Query:          strings.TrimSpace(req.Query),
		DepartmentID:   req.DepartmentID,
		SubsectionID:   req.SubsectionID,
		TopDepartments: []ranking.Ranked[int64]{},
		TopSubsections: []ranking.Ranked[int64]{},
		TopFAQs:        []ranking.Ranked[string]{},
		Messages:       []Notice{},
	}
	if res.Query == "" || s.scorer == nil {
		return res, nil
	}

	var (
		stage   string
		rankErr error
	)
	switch {
	case req.SubsectionID != nil:
		stage = StageFAQs
		faqs, err := s.faqs.ListBySubsection(ctx, *req.SubsectionID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		res.TopFAQs, rankErr = ranking.Rank(ctx, s.scorer, res.Query, faqs,
			func(f domain.FAQ) string { return f.Question },
			func(f domain.FAQ) string { return f.Answer },
			s.options(topK(s.cfg.TopFAQs, 8)))
	case req.DepartmentID != nil:
		stage = StageSubsections
		subs, err := s.subsections.ListByDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		res.TopSubsections, rankErr = ranking.Rank(ctx, s.scorer, res.Query, subs,
			func(sub domain.Subsection) string { return sub.Name },
			func(sub domain.Subsection) int64 { return sub.ID },
			s.options(topK(s.cfg.TopSubsections, 3)))
	default:
		stage = StageDepartments
		depts, err := s.departments.ListAll(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		res.TopDepartments, rankErr = ranking.Rank(ctx, s.scorer, res.Query, depts,
			func(d domain.Department) string { return d.Name },
			func(d domain.Department) int64 { return d.ID },
			s.options(topK(s.cfg.TopDepartments, 3)))
	}

	outcome := "ok"
	if rankErr != nil {
		outcome = "error"
		res.Messages = append(res.Messages, errorNotice(NoticeRankingDown))
		s.logger.Warn("ranking failed", zap.String("stage", stage), zap.Error(rankErr))
	}
	if s.metrics != nil {
		s.metrics.RecordRanking(stage, outcome)
	}
	return res, nil
}

func (s *SearchService) options(k int) ranking.Options {
	return ranking.Options{TopK: k, BatchSize: s.cfg.BatchSize}
}
