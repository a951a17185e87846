package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/ranking"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/validation"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var db repository.DBTX = pg.Pool
	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	subsectionRepo := repository.NewSubsectionRepository(db)
	faqRepo := repository.NewFAQRepository(db)
	assignmentRepo := repository.NewSpecialistDepartmentRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redis.Client, logger)

	notifications := service.NewNotificationService(logger, cfg.Notification)
	notificationWorker := worker.NewNotificationWorker(notifications, logger, 0)
	notificationWorker.Register(dispatcher)
	notificationWorker.Start(ctx)
	defer notificationWorker.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokens, logger)

	scorer := ranking.NewCachedScorer(ranking.NewHTTPScorer(cfg.Ranking), cacheRepo, cfg.Ranking.CacheTTL(), logger)
	searchService := service.NewSearchService(service.SearchDependencies{
		Scorer:         scorer,
		DepartmentRepo: departmentRepo,
		SubsectionRepo: subsectionRepo,
		FAQRepo:        faqRepo,
		Config:         cfg.Ranking,
		Metrics:        metrics,
		Logger:         logger,
	})
	inboxService := service.NewInboxService(service.InboxDependencies{
		TicketRepo:               ticketRepo,
		DepartmentRepo:           departmentRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		ClaimRepo:                claimRepo,
		Logger:                   logger,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo:               ticketRepo,
		ClaimRepo:                claimRepo,
		DepartmentRepo:           departmentRepo,
		MessageRepo:              messageRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		Dispatcher:               dispatcher,
		Metrics:                  metrics,
		Logger:                   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:               ticketRepo,
		MessageRepo:              messageRepo,
		DepartmentRepo:           departmentRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		ClaimRepo:                claimRepo,
		Dispatcher:               dispatcher,
		Logger:                   logger,
	})
	statisticsService := service.NewStatisticsService(service.StatisticsDependencies{
		StatisticsRepo:           statisticsRepo,
		DepartmentRepo:           departmentRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		Cache:                    cacheRepo,
		Logger:                   logger,
	})
	directorService := service.NewDirectorService(service.DirectorDependencies{
		UserRepo:                 userRepo,
		DepartmentRepo:           departmentRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		ClaimRepo:                claimRepo,
		Dispatcher:               dispatcher,
		Stats:                    statisticsService,
		BcryptCost:               cfg.Auth.BcryptCost,
		Logger:                   logger,
	})
	subsectionService := service.NewSubsectionService(service.SubsectionDependencies{
		SubsectionRepo:           subsectionRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		Logger:                   logger,
	})
	faqService := service.NewFAQService(service.FAQDependencies{
		FAQRepo:                  faqRepo,
		SubsectionRepo:           subsectionRepo,
		DepartmentRepo:           departmentRepo,
		SpecialistDepartmentRepo: assignmentRepo,
		Logger:                   logger,
	})

	validator := validation.New()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	specialistHandler := handlers.NewSpecialistHandler(handlers.SpecialistDependencies{
		Inbox:      inboxService,
		Triage:     triageService,
		Tickets:    ticketService,
		Statistics: statisticsService,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, handlers.Dependency{Name: "postgres", Pinger: pg}, handlers.Dependency{Name: "redis", Pinger: redis}),
		Auth:           handlers.NewAuthHandler(authService, validator),
		Search:         handlers.NewSearchHandler(searchService),
		FAQ:            handlers.NewFAQHandler(faqService, subsectionService, ticketService, validator),
		Student:        handlers.NewStudentHandler(ticketService, triageService, validator),
		Specialist:     specialistHandler,
		Director:       handlers.NewDirectorHandler(directorService, statisticsService, validator),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
