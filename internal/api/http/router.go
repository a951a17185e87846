package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Search         *handlers.SearchHandler
	FAQ            *handlers.FAQHandler
	Student        *handlers.StudentHandler
	Specialist     *handlers.SpecialistHandler
	Director       *handlers.DirectorHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Auth.Login)
	app.Get("/", cfg.Search.Search)
	app.Get("/faq/", cfg.FAQ.Departments)
	app.Get("/faq/:department", cfg.FAQ.Department)

	specialist := guarded(cfg.AuthMiddleware, domain.RoleSpecialist)
	app.Get("/specialist_dashboard/:ticket_type/", specialist(cfg.Specialist.Dashboard)...)
	app.Post("/specialist_dashboard/:ticket_type/", specialist(cfg.Specialist.DashboardAction)...)
	app.Get("/specialist_claim_ticket/:id", specialist(cfg.Specialist.ClaimCandidate)...)
	app.Post("/specialist_claim_ticket/:id", specialist(cfg.Specialist.Claim)...)
	app.Get("/specialist_message/:id", specialist(cfg.Specialist.Thread)...)
	app.Post("/specialist_message/:id", specialist(cfg.Specialist.ThreadAction)...)
	app.Get("/specialist_statistics", specialist(cfg.Specialist.Statistics)...)
	app.Get("/subsections/", specialist(cfg.FAQ.Subsections)...)
	app.Post("/subsections/", specialist(cfg.FAQ.CreateSubsection)...)
	app.Put("/subsections/:id", specialist(cfg.FAQ.RenameSubsection)...)
	app.Delete("/subsections/:id", specialist(cfg.FAQ.DeleteSubsection)...)
	app.Get("/specialist_faq/", specialist(cfg.FAQ.MyFAQs)...)
	app.Post("/specialist_faq/", specialist(cfg.FAQ.CreateFAQ)...)
	app.Put("/specialist_faq/:id", specialist(cfg.FAQ.UpdateFAQ)...)
	app.Delete("/specialist_faq/:id", specialist(cfg.FAQ.DeleteFAQ)...)
	app.Get("/specialist_faq/from_ticket/:id", specialist(cfg.FAQ.FromTicket)...)
	app.Post("/specialist_faq/from_ticket/:id", specialist(cfg.FAQ.CreateFromTicket)...)

	student := guarded(cfg.AuthMiddleware, domain.RoleStudent)
	app.Get("/student_dashboard/", student(cfg.Student.Dashboard)...)
	app.Post("/student_dashboard/", student(cfg.Student.FilterDashboard)...)
	app.Post("/ticket/", student(cfg.Student.CreateTicket)...)
	app.Get("/ticket/:id/", student(cfg.Student.Ticket)...)
	app.Post("/ticket/:id/", student(cfg.Student.TicketAction)...)

	director := guarded(cfg.AuthMiddleware, domain.RoleDirector)
	app.Get("/director_panel/", director(cfg.Director.Users)...)
	app.Post("/director_panel/", director(cfg.Director.UsersAction)...)
	app.Put("/director_panel/users/:id", director(cfg.Director.EditUser)...)
	app.Get("/department_manager/", director(cfg.Director.Departments)...)
	app.Post("/department_manager/", director(cfg.Director.CreateDepartment)...)
	app.Put("/department_manager/:id", director(cfg.Director.RenameDepartment)...)
	app.Delete("/department_manager/:id", director(cfg.Director.DeleteDepartment)...)
	app.Get("/director_statistics", director(cfg.Director.Statistics)...)
}

// guarded prefixes a handler with authentication and the role gate. Routes are guarded one by one
// because the role areas share the root prefix.
func guarded(m *auth.AuthMiddleware, roles ...domain.Role) func(fiber.Handler) []fiber.Handler {
	gate := auth.RequireRoles(roles...)
	return func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{m.Handle, gate, h}
	}
}
