package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SpecialistDepartmentRepository manages the one-department-per-specialist assignment.
type SpecialistDepartmentRepository interface {
	GetBySpecialist(ctx context.Context, specialistID int64) (*domain.SpecialistDepartment, error)
	Upsert(ctx context.Context, specialistID, departmentID int64) (*domain.SpecialistDepartment, error)
	Delete(ctx context.Context, specialistID int64) (bool, error)
}

type specialistDepartmentRepository struct {
	db DBTX
}

// NewSpecialistDepartmentRepository builds the repository.
func NewSpecialistDepartmentRepository(db DBTX) SpecialistDepartmentRepository {
	return &specialistDepartmentRepository{db: db}
}

func (r *specialistDepartmentRepository) GetBySpecialist(ctx context.Context, specialistID int64) (*domain.SpecialistDepartment, error) {
	var sd domain.SpecialistDepartment
	if err := r.db.QueryRow(ctx,
		`SELECT id, specialist_id, department_id FROM specialist_departments WHERE specialist_id=$1`, specialistID,
	).Scan(&sd.ID, &sd.SpecialistID, &sd.DepartmentID); err != nil {
		return nil, err
	}
	return &sd, nil
}

// Upsert creates the assignment or moves it to departmentID.
func (r *specialistDepartmentRepository) Upsert(ctx context.Context, specialistID, departmentID int64) (*domain.SpecialistDepartment, error) {
	sd := domain.SpecialistDepartment{SpecialistID: specialistID, DepartmentID: departmentID}
	if err := r.db.QueryRow(ctx, `
        INSERT INTO specialist_departments (specialist_id, department_id) VALUES ($1,$2)
        ON CONFLICT (specialist_id) DO UPDATE SET department_id = EXCLUDED.department_id
        RETURNING id`, specialistID, departmentID,
	).Scan(&sd.ID); err != nil {
		return nil, err
	}
	return &sd, nil
}

func (r *specialistDepartmentRepository) Delete(ctx context.Context, specialistID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM specialist_departments WHERE specialist_id=$1`, specialistID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
