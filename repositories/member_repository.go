package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/fitfun/competition-system/models"
)

var (
	ErrMemberNotFound = errors.New("competition membership not found")
	ErrMemberConflict = errors.New("user already has a membership row for this competition")
)

// MemberRepository stores participant and pending join-request rows.
// A user has at most one row per competition; its status says which
// list they are on.
type MemberRepository interface {
	Add(ctx context.Context, exec SQLExecutor, member *models.CompetitionMember) error
	Find(ctx context.Context, competitionID, userID int) (*models.CompetitionMember, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.CompetitionMember, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, competitionID, userID int, status models.MemberStatus) error
	Remove(ctx context.Context, exec SQLExecutor, competitionID, userID int) error
	RemoveUserEverywhere(ctx context.Context, exec SQLExecutor, userID int) error
	CountParticipants(ctx context.Context, competitionID int) (int, error)
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMemberRepository) Add(ctx context.Context, exec SQLExecutor, m *models.CompetitionMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO competition_members (competition_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, m.CompetitionID, m.UserID, m.Status).
		Scan(&m.ID, &m.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrMemberConflict
	}
	return err
}

func (r *postgresMemberRepository) Find(ctx context.Context, competitionID, userID int) (*models.CompetitionMember, error) {
	m := &models.CompetitionMember{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, competition_id, user_id, status, created_at
		FROM competition_members
		WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID,
	).Scan(&m.ID, &m.CompetitionID, &m.UserID, &m.Status, &m.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMemberRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.CompetitionMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, competition_id, user_id, status, created_at
		FROM competition_members
		WHERE competition_id = $1
		ORDER BY created_at, id`,
		competitionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.CompetitionMember, 0)
	for rows.Next() {
		var m models.CompetitionMember
		if err := rows.Scan(&m.ID, &m.CompetitionID, &m.UserID, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresMemberRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, competitionID, userID int, status models.MemberStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE competition_members SET status = $1
		WHERE competition_id = $2 AND user_id = $3`,
		status, competitionID, userID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) Remove(ctx context.Context, exec SQLExecutor, competitionID, userID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		DELETE FROM competition_members
		WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) RemoveUserEverywhere(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM competition_members WHERE user_id = $1`, userID)
	return err
}

func (r *postgresMemberRepository) CountParticipants(ctx context.Context, competitionID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*) FROM competition_members
		WHERE competition_id = $1 AND status = 'participant'`,
		competitionID,
	).Scan(&count)
	return count, err
}
