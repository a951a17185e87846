package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

// UserFilter drives the director user panel.
type UserFilter struct {
	Params query.FilterParams
	Page   query.Page
}

// UserTextFields are the columns filter/search applies to on the user panel.
var UserTextFields = []string{"email", "first_name", "last_name"}

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.UserView, int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository instantiates repository.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.role, u.password_hash, u.is_active, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const q = `
        INSERT INTO users (email, first_name, last_name, role, password_hash, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	user.Email = domain.NormalizeEmail(user.Email)
	return r.db.QueryRow(ctx, q,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const q = `
        UPDATE users SET email=$1, first_name=$2, last_name=$3, role=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	user.Email = domain.NormalizeEmail(user.Email)
	cmd, err := r.db.Exec(ctx, q, user.Email, user.FirstName, user.LastName, user.Role, user.IsActive, user.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2`, role, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email=$1`, domain.NormalizeEmail(email))
}

func (r *userRepository) fetchSingle(ctx context.Context, q string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, q, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.UserView, int64, error) {
	const from = `
        FROM users u
        LEFT JOIN specialist_departments sd ON sd.specialist_id = u.id
        LEFT JOIN departments d ON d.id = sd.department_id`

	b := query.NewBuilder()
	for _, field := range UserTextFields {
		b.Match("u."+field, filter.Params.Method, filter.Params.Text[field])
	}
	if filter.Params.ID != nil {
		b.Equal("u.id", *filter.Params.ID)
	}
	if role, ok := domain.ParseRole(filter.Params.Value("role")); ok {
		b.Equal("u.role", role)
	}
	if deptID, ok := filter.Params.Int64("department"); ok {
		b.Equal("sd.department_id", deptID)
	}

	total, err := countRows(ctx, r.db, `SELECT COUNT(*)`+from+b.Where(), b.Args()...)
	if err != nil {
		return nil, 0, err
	}

	where := b.Where()
	limit := b.Paginate(filter.Page)
	q := `SELECT ` + userColumns + `, sd.department_id, d.name` + from + where + ` ORDER BY u.id` + limit
	rows, err := r.db.Query(ctx, q, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.UserView
	for rows.Next() {
		var view domain.UserView
		if err := rows.Scan(
			&view.ID,
			&view.Email,
			&view.FirstName,
			&view.LastName,
			&view.Role,
			&view.PasswordHash,
			&view.IsActive,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.DepartmentID,
			&view.DepartmentName,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, view)
	}
	return result, total, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
