package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fitfun/competition-system/models"
)

var (
	ErrCompetitionNotFound       = errors.New("competition not found")
	ErrCompetitionInvalidCreator = errors.New("invalid creator reference")
)

type ListCompetitionsFilter struct {
	CreatorID  *int
	Status     *models.CompetitionStatus
	PublicOnly bool
	Limit      int
	Offset     int
}

type CompetitionRepository interface {
	Create(ctx context.Context, c *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error)
	ListByParticipant(ctx context.Context, userID int) ([]models.Competition, error)
	Update(ctx context.Context, c *models.Competition) error
	// UpdateStatusFrom transitions the stored status only if it still
	// equals expected. It reports whether this call performed the
	// transition, which is how lifecycle side effects fire exactly once
	// under concurrent sweeps.
	UpdateStatusFrom(ctx context.Context, exec SQLExecutor, id int, expected, next models.CompetitionStatus) (bool, error)
	ReassignCreator(ctx context.Context, exec SQLExecutor, id, newCreatorID int) error
	SaveResults(ctx context.Context, exec SQLExecutor, id int, results []models.Result) error
	GetResults(ctx context.Context, id int) ([]models.Result, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitionColumns = `
	id, name, description, creator_id, is_public, join_mode, max_participants,
	start_date, duration_days, measurement_method, prize_description,
	winner_distribution, status, created_at`

func scanCompetition(row interface{ Scan(dest ...interface{}) error }) (*models.Competition, error) {
	c := &models.Competition{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.CreatorID, &c.IsPublic, &c.JoinMode, &c.MaxParticipants,
		&c.StartDate, &c.DurationDays, &c.Method, &c.PrizeDescription,
		&c.WinnerDistribution, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (
			name, description, creator_id, is_public, join_mode, max_participants,
			start_date, duration_days, measurement_method, prize_description,
			winner_distribution, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.CreatorID, c.IsPublic, c.JoinMode, c.MaxParticipants,
		c.StartDate, c.DurationDays, c.Method, c.PrizeDescription,
		c.WinnerDistribution, c.Status,
	).Scan(&c.ID, &c.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrCompetitionInvalidCreator
	}
	return err
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE id = $1`
	c, err := scanCompetition(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCompetitionNotFound
	}
	return c, err
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error) {
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.PublicOnly {
		query += " AND is_public = TRUE"
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCompetitions(rows)
}

func (r *postgresCompetitionRepository) ListByParticipant(ctx context.Context, userID int) ([]models.Competition, error) {
	query := `
		SELECT` + competitionColumns + `
		FROM competitions
		WHERE id IN (
			SELECT competition_id FROM competition_members
			WHERE user_id = $1 AND status = 'participant'
		)
		ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCompetitions(rows)
}

func collectCompetitions(rows *sql.Rows) ([]models.Competition, error) {
	competitions := make([]models.Competition, 0)
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, *c)
	}
	return competitions, rows.Err()
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, c *models.Competition) error {
	query := `
		UPDATE competitions SET
			name = $1, description = $2, is_public = $3, join_mode = $4,
			max_participants = $5, start_date = $6, duration_days = $7,
			measurement_method = $8, prize_description = $9, winner_distribution = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.Description, c.IsPublic, c.JoinMode,
		c.MaxParticipants, c.StartDate, c.DurationDays,
		c.Method, c.PrizeDescription, c.WinnerDistribution,
		c.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatusFrom(ctx context.Context, exec SQLExecutor, id int, expected, next models.CompetitionStatus) (bool, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE competitions SET status = $1 WHERE id = $2 AND status = $3`,
		next, id, expected,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postgresCompetitionRepository) ReassignCreator(ctx context.Context, exec SQLExecutor, id, newCreatorID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE competitions SET creator_id = $1 WHERE id = $2`, newCreatorID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) SaveResults(ctx context.Context, exec SQLExecutor, id int, results []models.Result) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM competition_results WHERE competition_id = $1`, id); err != nil {
		return err
	}
	for _, res := range results {
		_, err := executor.ExecContext(ctx, `
			INSERT INTO competition_results (competition_id, user_id, score, rank, has_measurements, is_winner)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, res.UserID, res.Score, res.Rank, res.HasMeasurements, res.IsWinner,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresCompetitionRepository) GetResults(ctx context.Context, id int) ([]models.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, score, rank, has_measurements, is_winner
		FROM competition_results
		WHERE competition_id = $1
		ORDER BY rank`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.Result, 0)
	for rows.Next() {
		var res models.Result
		if err := rows.Scan(&res.UserID, &res.Score, &res.Rank, &res.HasMeasurements, &res.IsWinner); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *postgresCompetitionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM competitions`).Scan(&count)
	return count, err
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM competitions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}
