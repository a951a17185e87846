package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/query"
)

// FAQRepository persists published questions.
type FAQRepository interface {
	Create(ctx context.Context, faq *domain.FAQ) error
	Update(ctx context.Context, faq *domain.FAQ) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.FAQ, error)
	ListBySpecialist(ctx context.Context, specialistID int64) ([]domain.FAQView, error)
	ListByDepartment(ctx context.Context, departmentID int64, page query.Page) ([]domain.FAQView, int64, error)
	ListBySubsection(ctx context.Context, subsectionID int64) ([]domain.FAQ, error)
}

type faqRepository struct {
	db DBTX
}

// NewFAQRepository builds the repository.
func NewFAQRepository(db DBTX) FAQRepository {
	return &faqRepository{db: db}
}

const faqViewSelect = `
        SELECT f.id, f.specialist_id, f.department_id, f.subsection_id, f.question, f.answer, s.name
        FROM faqs f JOIN subsections s ON s.id = f.subsection_id`

func (r *faqRepository) Create(ctx context.Context, faq *domain.FAQ) error {
	return r.db.QueryRow(ctx, `
        INSERT INTO faqs (specialist_id, department_id, subsection_id, question, answer)
        VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		faq.SpecialistID, faq.DepartmentID, faq.SubsectionID, faq.Question, faq.Answer,
	).Scan(&faq.ID)
}

func (r *faqRepository) Update(ctx context.Context, faq *domain.FAQ) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE faqs SET subsection_id=$1, question=$2, answer=$3 WHERE id=$4`,
		faq.SubsectionID, faq.Question, faq.Answer, faq.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *faqRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM faqs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *faqRepository) GetByID(ctx context.Context, id int64) (*domain.FAQ, error) {
	var faq domain.FAQ
	if err := r.db.QueryRow(ctx, `
        SELECT id, specialist_id, department_id, subsection_id, question, answer
        FROM faqs WHERE id=$1`, id,
	).Scan(&faq.ID, &faq.SpecialistID, &faq.DepartmentID, &faq.SubsectionID, &faq.Question, &faq.Answer); err != nil {
		return nil, err
	}
	return &faq, nil
}

func (r *faqRepository) ListBySpecialist(ctx context.Context, specialistID int64) ([]domain.FAQView, error) {
	rows, err := r.db.Query(ctx, faqViewSelect+` WHERE f.specialist_id=$1 ORDER BY f.id`, specialistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFAQViews(rows)
}

// ListByDepartment orders by question so grouped pages read alphabetically.
func (r *faqRepository) ListByDepartment(ctx context.Context, departmentID int64, page query.Page) ([]domain.FAQView, int64, error) {
	b := query.NewBuilder().Equal("f.department_id", departmentID)
	where := b.Where()
	total, err := countRows(ctx, r.db, `SELECT COUNT(*) FROM faqs f`+where, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	limit := b.Paginate(page)
	rows, err := r.db.Query(ctx, faqViewSelect+where+` ORDER BY f.question, f.id`+limit, b.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	views, err := scanFAQViews(rows)
	return views, total, err
}

func (r *faqRepository) ListBySubsection(ctx context.Context, subsectionID int64) ([]domain.FAQ, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, specialist_id, department_id, subsection_id, question, answer
        FROM faqs WHERE subsection_id=$1 ORDER BY id`, subsectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FAQ
	for rows.Next() {
		var faq domain.FAQ
		if err := rows.Scan(&faq.ID, &faq.SpecialistID, &faq.DepartmentID, &faq.SubsectionID, &faq.Question, &faq.Answer); err != nil {
			return nil, err
		}
		result = append(result, faq)
	}
	return result, rows.Err()
}

func scanFAQViews(rows pgx.Rows) ([]domain.FAQView, error) {
	var result []domain.FAQView
	for rows.Next() {
		var view domain.FAQView
		if err := rows.Scan(
			&view.ID,
			&view.SpecialistID,
			&view.DepartmentID,
			&view.SubsectionID,
			&view.Question,
			&view.Answer,
			&view.SubsectionName,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}
