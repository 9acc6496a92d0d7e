package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fitfun/competition-system/competition"
	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

// LifecycleService drives competition status transitions. It can be
// invoked from the periodic scheduler or on every read of a
// competition; both paths converge on the same idempotent transition
// detection, so side effects (notifications, winner computation) fire
// once per transition no matter how often or concurrently it runs.
type LifecycleService interface {
	// SyncCompetition re-derives the competition's status from its
	// dates, persists a detected change and fires the entry side
	// effects. It returns the competition with members and, once
	// completed, winners and results populated.
	SyncCompetition(ctx context.Context, id int) (*models.Competition, error)
	// SyncAll sweeps every competition that can still transition.
	SyncAll(ctx context.Context) error
	// Cancel marks a competition canceled. Only the creator or an
	// admin may cancel, and never after completion.
	Cancel(ctx context.Context, competitionID, requesterID int) error
}

type lifecycleService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	memberRepo      repositories.MemberRepository
	measurementRepo repositories.MeasurementRepository
	userRepo        repositories.UserRepository
	notifier        NotificationSink
	mailer          CompetitionMailer
	clock           Clock
	logger          *slog.Logger
}

func NewLifecycleService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	memberRepo repositories.MemberRepository,
	measurementRepo repositories.MeasurementRepository,
	userRepo repositories.UserRepository,
	notifier NotificationSink,
	mailer CompetitionMailer,
	clock Clock,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		db:              db,
		competitionRepo: competitionRepo,
		memberRepo:      memberRepo,
		measurementRepo: measurementRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		mailer:          mailer,
		clock:           clock,
		logger:          logger,
	}
}

func (s *lifecycleService) SyncCompetition(ctx context.Context, id int) (*models.Competition, error) {
	c, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if err := populateMembers(ctx, s.memberRepo, c); err != nil {
		return nil, err
	}
	if err := s.sync(ctx, c); err != nil {
		return nil, err
	}
	if c.Status == models.StatusCompleted && c.Results == nil {
		if err := s.populateResults(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *lifecycleService) SyncAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, status := range []models.CompetitionStatus{
		models.StatusUpcoming, models.StatusActive, models.StatusGracePeriod,
	} {
		status := status
		competitions, err := s.competitionRepo.List(ctx, repositories.ListCompetitionsFilter{Status: &status})
		if err != nil {
			return fmt.Errorf("failed to list %s competitions: %w", status, err)
		}
		for i := range competitions {
			c := competitions[i]
			g.Go(func() error {
				if err := populateMembers(ctx, s.memberRepo, &c); err != nil {
					return err
				}
				if err := s.sync(ctx, &c); err != nil {
					s.logger.Error("status sync failed",
						slog.Int("competition_id", c.ID), slog.Any("error", err))
				}
				// A single failing competition does not abort the sweep.
				return nil
			})
		}
	}
	return g.Wait()
}

// sync performs at most one transition for the competition. The
// conditional status update is the idempotence gate: if another
// invocation already moved the row, zero rows are affected and no side
// effects fire here.
func (s *lifecycleService) sync(ctx context.Context, c *models.Competition) error {
	next := competition.ResolveStatus(c, s.clock.Now())
	if next == c.Status {
		return nil
	}
	prev := c.Status

	if next == models.StatusCompleted {
		return s.complete(ctx, c, prev)
	}

	applied, err := s.competitionRepo.UpdateStatusFrom(ctx, nil, c.ID, prev, next)
	if err != nil {
		return fmt.Errorf("failed to persist status of competition %d: %w", c.ID, err)
	}
	c.Status = next
	if applied {
		s.announce(ctx, c, next)
	}
	return nil
}

// complete finalizes the competition: status flip, winner computation
// and result persistence happen in one transaction, so a failed write
// leaves no partial winner or status update behind. Notifications go
// out only after the commit.
func (s *lifecycleService) complete(ctx context.Context, c *models.Competition, prev models.CompetitionStatus) error {
	measurements, err := s.measurementRepo.ListByCompetition(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load measurements of competition %d: %w", c.ID, err)
	}
	byUser := groupMeasurementsByUser(measurements)
	winners, all := competition.ComputeWinners(c, byUser)

	results := make([]models.Result, len(all))
	for i, e := range all {
		results[i] = models.Result{
			UserID:          e.UserID,
			Score:           e.Score,
			Rank:            e.Rank,
			HasMeasurements: e.HasMeasurements,
			IsWinner:        i < len(winners),
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin completion transaction: %w", err)
	}
	defer tx.Rollback()

	applied, err := s.competitionRepo.UpdateStatusFrom(ctx, tx, c.ID, prev, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete competition %d: %w", c.ID, err)
	}
	if !applied {
		// Another sweep got there first; it owns the side effects.
		c.Status = models.StatusCompleted
		return nil
	}
	if err := s.competitionRepo.SaveResults(ctx, tx, c.ID, results); err != nil {
		return fmt.Errorf("failed to save results of competition %d: %w", c.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion of competition %d: %w", c.ID, err)
	}

	c.Status = models.StatusCompleted
	c.Results = results
	c.Winners = winnerResults(results)

	winnerSet := make(map[int]int, len(winners))
	for i, w := range winners {
		winnerSet[w.UserID] = i + 1
	}
	for _, userID := range c.Participants {
		if place, ok := winnerSet[userID]; ok {
			s.notifier.Notify(ctx, userID, models.Notification{
				Type:          models.NotificationWinner,
				Title:         "Congratulations, you won!",
				Message:       fmt.Sprintf("You finished in %s place in %q.", ordinal(place), c.Name),
				CompetitionID: &c.ID,
			})
			continue
		}
		s.notifier.Notify(ctx, userID, models.Notification{
			Type:          models.NotificationResultsPublished,
			Title:         "Results published",
			Message:       fmt.Sprintf("%q has finished and the final results are in.", c.Name),
			CompetitionID: &c.ID,
		})
	}
	s.emailParticipants(ctx, c, "completed", winnerSet)
	return nil
}

// emailParticipants delivers lifecycle emails to every participant
// still on the platform. Winners listed in winnerPlaces get the winner
// email instead of the plain status announcement. Delivery failures
// are logged, never propagated: email is best effort.
func (s *lifecycleService) emailParticipants(ctx context.Context, c *models.Competition, status string, winnerPlaces map[int]int) {
	if s.mailer == nil || len(c.Participants) == 0 {
		return
	}
	users, err := s.userRepo.ListByIDs(ctx, c.Participants)
	if err != nil {
		s.logger.Warn("failed to load participant emails",
			slog.Int("competition_id", c.ID), slog.Any("error", err))
		return
	}
	for _, u := range users {
		var err error
		if place, ok := winnerPlaces[u.ID]; ok {
			err = s.mailer.SendWinnerEmail(u.Email, c.Name, place)
		} else {
			err = s.mailer.SendCompetitionStatusEmail(u.Email, c.Name, status)
		}
		if err != nil {
			s.logger.Warn("failed to send competition email",
				slog.Int("user_id", u.ID), slog.Any("error", err))
		}
	}
}

func (s *lifecycleService) announce(ctx context.Context, c *models.Competition, entered models.CompetitionStatus) {
	var notif models.Notification
	switch entered {
	case models.StatusActive:
		notif = models.Notification{
			Type:    models.NotificationCompetitionStarted,
			Title:   "Competition started",
			Message: fmt.Sprintf("%q has started. Log your first measurement!", c.Name),
		}
	case models.StatusGracePeriod:
		notif = models.Notification{
			Type:    models.NotificationGracePeriod,
			Title:   "Competition ended",
			Message: fmt.Sprintf("%q has ended. You have 24 hours to finalize your measurements.", c.Name),
		}
	default:
		return
	}
	notif.CompetitionID = &c.ID
	for _, userID := range c.Participants {
		s.notifier.Notify(ctx, userID, notif)
	}
	if entered == models.StatusActive {
		s.emailParticipants(ctx, c, "started", nil)
	}
}

func (s *lifecycleService) Cancel(ctx context.Context, competitionID, requesterID int) error {
	c, err := s.SyncCompetition(ctx, competitionID)
	if err != nil {
		return err
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if c.CreatorID != requesterID && !requester.IsAdmin() {
		return ErrForbiddenOperation
	}

	if c.Status == models.StatusCompleted {
		return ErrCompetitionCompleted
	}
	if c.Status == models.StatusCanceled {
		return nil
	}

	applied, err := s.competitionRepo.UpdateStatusFrom(ctx, nil, c.ID, c.Status, models.StatusCanceled)
	if err != nil {
		return fmt.Errorf("failed to cancel competition %d: %w", c.ID, err)
	}
	if !applied {
		// Lost the race against a concurrent transition; retry once
		// against the fresh state.
		return s.Cancel(ctx, competitionID, requesterID)
	}
	c.Status = models.StatusCanceled

	for _, userID := range c.Participants {
		s.notifier.Notify(ctx, userID, models.Notification{
			Type:          models.NotificationCompetitionCanceled,
			Title:         "Competition canceled",
			Message:       fmt.Sprintf("%q has been canceled.", c.Name),
			CompetitionID: &c.ID,
		})
	}
	s.emailParticipants(ctx, c, "canceled", nil)
	return nil
}

func (s *lifecycleService) populateResults(ctx context.Context, c *models.Competition) error {
	results, err := s.competitionRepo.GetResults(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load results of competition %d: %w", c.ID, err)
	}
	c.Results = results
	c.Winners = winnerResults(results)
	return nil
}

func winnerResults(results []models.Result) []models.Result {
	winners := make([]models.Result, 0, 3)
	for _, r := range results {
		if r.IsWinner {
			winners = append(winners, r)
		}
	}
	return winners
}
