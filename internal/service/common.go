package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Page sizes per list view.
const (
	SpecialistPageSize     = 10
	DirectorPageSize       = 10
	StudentPageSize        = 5
	FAQDepartmentsPageSize = 9
	DepartmentFAQPageSize  = 25
)

// Notice is a user-facing advisory rendered next to a page, never an error.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Advisory texts shown to users.
const (
	NoticeSelectValidOption = "Select a valid option!"
	NoticeRankingDown       = "Please use FAQs or open a ticket, currently this service is down."
)

func infoNotice(text string) Notice  { return Notice{Level: "info", Text: text} }
func errorNotice(text string) Notice { return Notice{Level: "error", Text: text} }

func requireRole(actor *domain.User, roles ...domain.Role) error {
	return auth.Authorize(&auth.Principal{User: actor}, roles...)
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// ticketAccess answers which tickets a specialist may act on.
type ticketAccess struct {
	assignments repository.SpecialistDepartmentRepository
	claims      repository.ClaimRepository
}

// departmentOf returns the specialist's department id, or nil when unassigned.
func (a ticketAccess) departmentOf(ctx context.Context, specialistID int64) (*int64, error) {
	sd, err := a.assignments.GetBySpecialist(ctx, specialistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sd.DepartmentID, nil
}

// claimHolder returns the specialist holding the ticket, or 0.
func (a ticketAccess) claimHolder(ctx context.Context, ticketID int64) (int64, error) {
	claim, err := a.claims.GetByTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return claim.SpecialistID, nil
}

// specialistCanAct allows the ticket's department specialists and the current claimant.
func (a ticketAccess) specialistCanAct(ctx context.Context, specialistID int64, ticket *domain.Ticket) (bool, error) {
	dept, err := a.departmentOf(ctx, specialistID)
	if err != nil {
		return false, err
	}
	if dept != nil && *dept == ticket.DepartmentID {
		return true, nil
	}
	holder, err := a.claimHolder(ctx, ticket.ID)
	if err != nil {
		return false, err
	}
	return holder == specialistID, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isUniqueViolation reports a unique constraint failure from postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
