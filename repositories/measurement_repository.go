package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitfun/competition-system/models"
)

var ErrMeasurementNotFound = errors.New("measurement not found")

type MeasurementRepository interface {
	Create(ctx context.Context, m *models.Measurement) error
	GetByID(ctx context.Context, id int) (*models.Measurement, error)
	ListByUser(ctx context.Context, userID int, competitionID *int) ([]models.Measurement, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Measurement, error)
	Update(ctx context.Context, m *models.Measurement) error
	Delete(ctx context.Context, id int) error
	AnonymizeByUser(ctx context.Context, exec SQLExecutor, userID int) error
	Count(ctx context.Context) (int, error)
}

type postgresMeasurementRepository struct {
	db *sql.DB
}

func NewPostgresMeasurementRepository(db *sql.DB) MeasurementRepository {
	return &postgresMeasurementRepository{db: db}
}

func (r *postgresMeasurementRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const measurementColumns = `
	id, user_id, competition_id, weight_kg, bmi, body_fat_percentage,
	muscle_mass_percentage, taken_at, edited_at, anonymized`

func scanMeasurement(row interface{ Scan(dest ...interface{}) error }) (*models.Measurement, error) {
	m := &models.Measurement{}
	err := row.Scan(
		&m.ID, &m.UserID, &m.CompetitionID, &m.WeightKg, &m.BMI, &m.BodyFatPercentage,
		&m.MuscleMassPercentage, &m.TakenAt, &m.EditedAt, &m.Anonymized,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMeasurementRepository) Create(ctx context.Context, m *models.Measurement) error {
	query := `
		INSERT INTO measurements (user_id, competition_id, weight_kg, bmi,
			body_fat_percentage, muscle_mass_percentage, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		m.UserID, m.CompetitionID, m.WeightKg, m.BMI,
		m.BodyFatPercentage, m.MuscleMassPercentage, m.TakenAt,
	).Scan(&m.ID)
}

func (r *postgresMeasurementRepository) GetByID(ctx context.Context, id int) (*models.Measurement, error) {
	query := `SELECT` + measurementColumns + ` FROM measurements WHERE id = $1`
	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMeasurementNotFound
	}
	return m, err
}

func (r *postgresMeasurementRepository) ListByUser(ctx context.Context, userID int, competitionID *int) ([]models.Measurement, error) {
	query := `SELECT` + measurementColumns + ` FROM measurements WHERE user_id = $1`
	args := []interface{}{userID}
	if competitionID != nil {
		query += ` AND competition_id = $2`
		args = append(args, *competitionID)
	}
	query += ` ORDER BY taken_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMeasurements(rows)
}

func (r *postgresMeasurementRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Measurement, error) {
	query := `SELECT` + measurementColumns + ` FROM measurements
		WHERE competition_id = $1 ORDER BY taken_at, id`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMeasurements(rows)
}

func collectMeasurements(rows *sql.Rows) ([]models.Measurement, error) {
	measurements := make([]models.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, *m)
	}
	return measurements, rows.Err()
}

func (r *postgresMeasurementRepository) Update(ctx context.Context, m *models.Measurement) error {
	query := `
		UPDATE measurements SET
			weight_kg = $1, bmi = $2, body_fat_percentage = $3,
			muscle_mass_percentage = $4, edited_at = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		m.WeightKg, m.BMI, m.BodyFatPercentage,
		m.MuscleMassPercentage, m.EditedAt, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMeasurementNotFound)
}

func (r *postgresMeasurementRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMeasurementNotFound)
}

func (r *postgresMeasurementRepository) AnonymizeByUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		UPDATE measurements SET user_id = NULL, anonymized = TRUE
		WHERE user_id = $1`, userID)
	return err
}

func (r *postgresMeasurementRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM measurements`).Scan(&count)
	return count, err
}
