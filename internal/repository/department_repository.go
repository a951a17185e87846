package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

// DepartmentFilter drives the department manager list.
type DepartmentFilter struct {
	Params query.FilterParams
	Page   query.Page
}

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Department, error)
	ListAll(ctx context.Context) ([]domain.Department, error)
	List(ctx context.Context, filter DepartmentFilter) ([]domain.Department, int64, error)
}

type departmentRepository struct {
	db DBTX
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db DBTX) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	dept.Slug = domain.Slugify(dept.Name)
	return r.db.QueryRow(ctx,
		`INSERT INTO departments (name, slug) VALUES ($1,$2) RETURNING id`,
		dept.Name, dept.Slug,
	).Scan(&dept.ID)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	dept.Slug = domain.Slugify(dept.Name)
	cmd, err := r.db.Exec(ctx, `UPDATE departments SET name=$1, slug=$2 WHERE id=$3`, dept.Name, dept.Slug, dept.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the department; foreign keys cascade to everything bound to it.
func (r *departmentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT id, name, slug FROM departments WHERE id=$1`, id)
}

// GetByName matches exactly; names are unique so at most one row exists.
func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT id, name, slug FROM departments WHERE name=$1 ORDER BY id LIMIT 1`, name)
}

func (r *departmentRepository) GetBySlug(ctx context.Context, slug string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT id, name, slug FROM departments WHERE slug=$1 ORDER BY id LIMIT 1`, slug)
}

func (r *departmentRepository) fetchSingle(ctx context.Context, q string, arg any) (*domain.Department, error) {
	var dept domain.Department
	if err := r.db.QueryRow(ctx, q, arg).Scan(&dept.ID, &dept.Name, &dept.Slug); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListAll(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDepartments(rows)
}

func (r *departmentRepository) List(ctx context.Context, filter DepartmentFilter) ([]domain.Department, int64, error) {
	b := query.NewBuilder().Match("name", filter.Params.Method, filter.Params.Text["name"])
	if filter.Params.ID != nil {
		b.Equal("id", *filter.Params.ID)
	}

	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM departments`+b.Where(), b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	where := b.Where()
	limit := b.Paginate(filter.Page)
	rows, err := r.db.Query(ctx, `SELECT id, name, slug FROM departments`+where+` ORDER BY id`+limit, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	depts, err := scanDepartments(rows)
	return depts, total, err
}

func scanDepartments(rows pgx.Rows) ([]domain.Department, error) {
	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Slug); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
