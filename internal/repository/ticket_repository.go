package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

// InboxTextFields are the predicates accepted by the specialist dashboard, mapped to columns.
var InboxTextFields = map[string]string{
	"email":  "u.email",
	"header": "t.header",
}

// InboxFilter selects one specialist inbox category.
type InboxFilter struct {
	SpecialistID int64
	// DepartmentID is the specialist's assignment; nil yields empty department/archived views.
	DepartmentID *int64
	Category     domain.InboxCategory
	Params       query.FilterParams
	Page         query.Page
}

// StudentTicketFilter selects a student's own tickets.
type StudentTicketFilter struct {
	StudentID int64
	Status    *domain.TicketStatus
	Page      query.Page
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, first *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListInbox(ctx context.Context, filter InboxFilter) ([]domain.TicketView, int64, error)
	ListByStudent(ctx context.Context, filter StudentTicketFilter) ([]domain.TicketView, int64, error)
	Reroute(ctx context.Context, ticketID, departmentID int64) (bool, error)
	Close(ctx context.Context, ticketID int64) (bool, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketViewSelect = `SELECT t.id, t.student_id, t.department_id, t.header, t.status, u.email, d.name, si.specialist_id`

const ticketViewFrom = `
        FROM tickets t
        JOIN users u ON u.id = t.student_id
        JOIN departments d ON d.id = t.department_id
        LEFT JOIN specialist_inbox si ON si.ticket_id = t.id`

// Create stores the ticket and its opening message atomically.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, first *domain.Message) error {
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO tickets (student_id, department_id, header, status) VALUES ($1,$2,$3,$4) RETURNING id`,
			ticket.StudentID, ticket.DepartmentID, ticket.Header, ticket.Status,
		).Scan(&ticket.ID); err != nil {
			return err
		}
		if first == nil {
			return nil
		}
		first.TicketID = ticket.ID
		return insertMessage(ctx, tx, first)
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx,
		`SELECT id, student_id, department_id, header, status FROM tickets WHERE id=$1`, id,
	).Scan(&ticket.ID, &ticket.StudentID, &ticket.DepartmentID, &ticket.Header, &ticket.Status); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListInbox(ctx context.Context, filter InboxFilter) ([]domain.TicketView, int64, error) {
	b := query.NewBuilder()
	switch filter.Category {
	case domain.InboxDepartment:
		if filter.DepartmentID == nil {
			return nil, 0, nil
		}
		b.Equal("t.department_id", *filter.DepartmentID).
			Equal("t.status", domain.TicketStatusOpen).
			Raw("si.id IS NULL")
	case domain.InboxArchived:
		if filter.DepartmentID == nil {
			return nil, 0, nil
		}
		b.Equal("t.department_id", *filter.DepartmentID).
			Equal("t.status", domain.TicketStatusClosed)
	default:
		b.Equal("si.specialist_id", filter.SpecialistID)
	}
	for _, field := range []string{"email", "header"} {
		b.Match(InboxTextFields[field], filter.Params.Method, filter.Params.Text[field])
	}
	return r.listViews(ctx, b, filter.Page)
}

func (r *ticketRepository) ListByStudent(ctx context.Context, filter StudentTicketFilter) ([]domain.TicketView, int64, error) {
	b := query.NewBuilder().Equal("t.student_id", filter.StudentID)
	if filter.Status != nil {
		b.Equal("t.status", *filter.Status)
	}
	return r.listViews(ctx, b, filter.Page)
}

func (r *ticketRepository) listViews(ctx context.Context, b *query.Builder, page query.Page) ([]domain.TicketView, int64, error) {
	where := b.Where()
	total, err := countRows(ctx, r.db, `SELECT COUNT(*)`+ticketViewFrom+where, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	limit := b.Paginate(page)
	rows, err := r.db.Query(ctx, ticketViewSelect+ticketViewFrom+where+` ORDER BY t.id ASC`+limit, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.TicketView
	for rows.Next() {
		var view domain.TicketView
		if err := rows.Scan(
			&view.ID,
			&view.StudentID,
			&view.DepartmentID,
			&view.Header,
			&view.Status,
			&view.StudentEmail,
			&view.DepartmentName,
			&view.ClaimedBy,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, view)
	}
	return result, total, rows.Err()
}

// Reroute moves an open ticket and drops its claim in one transaction. It reports false when
// the ticket is missing or closed.
func (r *ticketRepository) Reroute(ctx context.Context, ticketID, departmentID int64) (bool, error) {
	moved := false
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`UPDATE tickets SET department_id=$1 WHERE id=$2 AND status='OPEN'`, departmentID, ticketID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return nil
		}
		moved = true
		_, err = tx.Exec(ctx, `DELETE FROM specialist_inbox WHERE ticket_id=$1`, ticketID)
		return err
	})
	return moved && err == nil, err
}

// Close sets the ticket CLOSED and deletes its claim in one transaction. It reports whether the
// status changed; closing a closed ticket still clears any stray claim.
func (r *ticketRepository) Close(ctx context.Context, ticketID int64) (bool, error) {
	closed := false
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE tickets SET status='CLOSED' WHERE id=$1 AND status='OPEN'`, ticketID)
		if err != nil {
			return err
		}
		closed = cmd.RowsAffected() > 0
		_, err = tx.Exec(ctx, `DELETE FROM specialist_inbox WHERE ticket_id=$1`, ticketID)
		return err
	})
	return closed && err == nil, err
}
