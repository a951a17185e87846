package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// StatisticsRepository runs the aggregate queries behind the dashboards.
type StatisticsRepository interface {
	DepartmentTicketCounts(ctx context.Context, departmentID int64) (domain.TicketCounts, error)
	LatestResponseAt(ctx context.Context, departmentID int64) (*time.Time, error)
	AverageMessagesPerTicket(ctx context.Context, departmentID int64) (float64, error)
	TicketCountsByDepartment(ctx context.Context) ([]domain.DepartmentTicketCounts, error)
	UserCountsByRole(ctx context.Context) (map[domain.Role]int64, error)
}

type statisticsRepository struct {
	db DBTX
}

// NewStatisticsRepository builds the repository.
func NewStatisticsRepository(db DBTX) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) DepartmentTicketCounts(ctx context.Context, departmentID int64) (domain.TicketCounts, error) {
	var counts domain.TicketCounts
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='OPEN'),
               COUNT(*) FILTER (WHERE status='CLOSED')
        FROM tickets WHERE department_id=$1`, departmentID,
	).Scan(&counts.Total, &counts.Open, &counts.Closed)
	return counts, err
}

// LatestResponseAt returns nil when no specialist has answered in the department.
func (r *statisticsRepository) LatestResponseAt(ctx context.Context, departmentID int64) (*time.Time, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx, `
        SELECT MAX(m.created_at)
        FROM messages m JOIN tickets t ON t.id = m.ticket_id
        WHERE t.department_id=$1 AND m.author_kind='SPECIALIST'`, departmentID,
	).Scan(&latest)
	return latest, err
}

func (r *statisticsRepository) AverageMessagesPerTicket(ctx context.Context, departmentID int64) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, `
        SELECT COALESCE(AVG(c.n), 0)::float8 FROM (
            SELECT COUNT(m.id) AS n
            FROM tickets t LEFT JOIN messages m ON m.ticket_id = t.id
            WHERE t.department_id=$1
            GROUP BY t.id
        ) c`, departmentID,
	).Scan(&avg)
	return avg, err
}

func (r *statisticsRepository) TicketCountsByDepartment(ctx context.Context) ([]domain.DepartmentTicketCounts, error) {
	rows, err := r.db.Query(ctx, `
        SELECT d.id, d.name,
               COUNT(t.id),
               COUNT(t.id) FILTER (WHERE t.status='OPEN'),
               COUNT(t.id) FILTER (WHERE t.status='CLOSED')
        FROM departments d LEFT JOIN tickets t ON t.department_id = d.id
        GROUP BY d.id, d.name
        ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DepartmentTicketCounts
	for rows.Next() {
		var row domain.DepartmentTicketCounts
		if err := rows.Scan(&row.DepartmentID, &row.DepartmentName, &row.Tickets.Total, &row.Tickets.Open, &row.Tickets.Closed); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *statisticsRepository) UserCountsByRole(ctx context.Context) (map[domain.Role]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.Role]int64{}
	for rows.Next() {
		var role domain.Role
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}
