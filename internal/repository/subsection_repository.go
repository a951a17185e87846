package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SubsectionRepository persists FAQ subsections.
type SubsectionRepository interface {
	Create(ctx context.Context, sub *domain.Subsection) error
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Subsection, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]domain.Subsection, error)
}

type subsectionRepository struct {
	db DBTX
}

// NewSubsectionRepository builds the repository.
func NewSubsectionRepository(db DBTX) SubsectionRepository {
	return &subsectionRepository{db: db}
}

func (r *subsectionRepository) Create(ctx context.Context, sub *domain.Subsection) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO subsections (department_id, name) VALUES ($1,$2) RETURNING id`,
		sub.DepartmentID, sub.Name,
	).Scan(&sub.ID)
}

func (r *subsectionRepository) Rename(ctx context.Context, id int64, name string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE subsections SET name=$1 WHERE id=$2`, name, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subsectionRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM subsections WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subsectionRepository) GetByID(ctx context.Context, id int64) (*domain.Subsection, error) {
	var sub domain.Subsection
	if err := r.db.QueryRow(ctx,
		`SELECT id, department_id, name FROM subsections WHERE id=$1`, id,
	).Scan(&sub.ID, &sub.DepartmentID, &sub.Name); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subsectionRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]domain.Subsection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, department_id, name FROM subsections WHERE department_id=$1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Subsection
	for rows.Next() {
		var sub domain.Subsection
		if err := rows.Scan(&sub.ID, &sub.DepartmentID, &sub.Name); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}
