package service

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/query"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type fixture struct {
	store      *memory.Store
	dispatcher *recordingDispatcher
	metrics    *countingRecorder
	scorer     *stubScorer

	inbox      *InboxService
	triage     *TriageService
	tickets    *TicketService
	director   *DirectorService
	subsection *SubsectionService
	faq        *FAQService
	search     *SearchService
	stats      *StatisticsService
}

func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{
		store:      store,
		dispatcher: &recordingDispatcher{},
		metrics:    &countingRecorder{},
		scorer:     &stubScorer{scores: map[string]float64{}},
	}
	logger := zap.NewNop()

	f.inbox = NewInboxService(InboxDependencies{
		TicketRepo:               memory.TicketRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		ClaimRepo:                memory.ClaimRepository{Store: store},
		Logger:                   logger,
	})
	f.triage = NewTriageService(TriageDependencies{
		TicketRepo:               memory.TicketRepository{Store: store},
		ClaimRepo:                memory.ClaimRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		MessageRepo:              memory.MessageRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		Dispatcher:               f.dispatcher,
		Metrics:                  f.metrics,
		Logger:                   logger,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:               memory.TicketRepository{Store: store},
		MessageRepo:              memory.MessageRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		ClaimRepo:                memory.ClaimRepository{Store: store},
		Dispatcher:               f.dispatcher,
		Logger:                   logger,
	})
	f.stats = NewStatisticsService(StatisticsDependencies{
		StatisticsRepo:           memory.StatisticsRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		Logger:                   logger,
	})
	f.director = NewDirectorService(DirectorDependencies{
		UserRepo:                 memory.UserRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		ClaimRepo:                memory.ClaimRepository{Store: store},
		Dispatcher:               f.dispatcher,
		Stats:                    f.stats,
		BcryptCost:               4,
		Logger:                   logger,
	})
	f.subsection = NewSubsectionService(SubsectionDependencies{
		SubsectionRepo:           memory.SubsectionRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		Logger:                   logger,
	})
	f.faq = NewFAQService(FAQDependencies{
		FAQRepo:                  memory.FAQRepository{Store: store},
		SubsectionRepo:           memory.SubsectionRepository{Store: store},
		DepartmentRepo:           memory.DepartmentRepository{Store: store},
		SpecialistDepartmentRepo: memory.SpecialistDepartmentRepository{Store: store},
		Logger:                   logger,
	})
	f.search = NewSearchService(SearchDependencies{
		Scorer:         f.scorer,
		DepartmentRepo: memory.DepartmentRepository{Store: store},
		SubsectionRepo: memory.SubsectionRepository{Store: store},
		FAQRepo:        memory.FAQRepository{Store: store},
		Config:         config.RankingConfig{BatchSize: 10, TopDepartments: 3, TopSubsections: 3, TopFAQs: 8},
		Metrics:        f.metrics,
		Logger:         logger,
	})
	return f
}

func firstPage(size int) query.Page {
	return query.Page{Number: 1, Size: size}
}

func noParams() query.FilterParams {
	return query.NormalizeFilterParams(map[string]string{}, InboxTextFields...)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
