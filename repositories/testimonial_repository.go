package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitfun/competition-system/models"
)

var ErrTestimonialNotFound = errors.New("testimonial not found")

type TestimonialRepository interface {
	Create(ctx context.Context, t *models.Testimonial) error
	GetByID(ctx context.Context, id int) (*models.Testimonial, error)
	List(ctx context.Context, approvedOnly bool) ([]models.Testimonial, error)
	UpdateStatus(ctx context.Context, id int, status models.TestimonialStatus, approvedBy *int) error
	Delete(ctx context.Context, id int) error
}

type postgresTestimonialRepository struct {
	db *sql.DB
}

func NewPostgresTestimonialRepository(db *sql.DB) TestimonialRepository {
	return &postgresTestimonialRepository{db: db}
}

func (r *postgresTestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	query := `
		INSERT INTO testimonials (user_id, competition_id, text, weight_lost_kg, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		t.UserID, t.CompetitionID, t.Text, t.WeightLostKg, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *postgresTestimonialRepository) GetByID(ctx context.Context, id int) (*models.Testimonial, error) {
	t := &models.Testimonial{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, competition_id, text, weight_lost_kg, status,
			approved_by, approved_at, created_at
		FROM testimonials WHERE id = $1`, id,
	).Scan(&t.ID, &t.UserID, &t.CompetitionID, &t.Text, &t.WeightLostKg, &t.Status,
		&t.ApprovedBy, &t.ApprovedAt, &t.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTestimonialNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTestimonialRepository) List(ctx context.Context, approvedOnly bool) ([]models.Testimonial, error) {
	query := `
		SELECT t.id, t.user_id, t.competition_id, t.text, t.weight_lost_kg, t.status,
			t.approved_by, t.approved_at, t.created_at, u.display_name, c.name
		FROM testimonials t
		JOIN users u ON u.id = t.user_id
		JOIN competitions c ON c.id = t.competition_id`
	if approvedOnly {
		query += ` WHERE t.status = 'approved'`
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	testimonials := make([]models.Testimonial, 0)
	for rows.Next() {
		var t models.Testimonial
		if err := rows.Scan(&t.ID, &t.UserID, &t.CompetitionID, &t.Text, &t.WeightLostKg, &t.Status,
			&t.ApprovedBy, &t.ApprovedAt, &t.CreatedAt, &t.UserDisplayName, &t.CompetitionName); err != nil {
			return nil, err
		}
		testimonials = append(testimonials, t)
	}
	return testimonials, rows.Err()
}

func (r *postgresTestimonialRepository) UpdateStatus(ctx context.Context, id int, status models.TestimonialStatus, approvedBy *int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE testimonials SET status = $1, approved_by = $2,
			approved_at = CASE WHEN $1 = 'approved' THEN now() ELSE approved_at END
		WHERE id = $3`,
		status, approvedBy, id,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTestimonialNotFound)
}

func (r *postgresTestimonialRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTestimonialNotFound)
}
