package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfun/competition-system/models"
)

type lifecycleFixture struct {
	service      LifecycleService
	competitions *fakeCompetitionRepo
	members      *fakeMemberRepo
	measurements *fakeMeasurementRepo
	users        *fakeUserRepo
	notifier     *fakeNotifier
	mailer       *fakeMailer
	clock        *fakeClock
	mock         sqlmock.Sqlmock
}

func newLifecycleFixture(t *testing.T, now time.Time) *lifecycleFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &lifecycleFixture{
		competitions: newFakeCompetitionRepo(),
		members:      newFakeMemberRepo(),
		measurements: newFakeMeasurementRepo(),
		users:        newFakeUserRepo(),
		notifier:     &fakeNotifier{},
		mailer:       &fakeMailer{},
		clock:        &fakeClock{now: now},
		mock:         mock,
	}
	f.competitions.members = f.members
	f.service = NewLifecycleService(
		db,
		f.competitions,
		f.members,
		f.measurements,
		f.users,
		f.notifier,
		f.mailer,
		f.clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *lifecycleFixture) addCompetition(c *models.Competition) *models.Competition {
	f.competitions.put(c)
	return c
}

func (f *lifecycleFixture) addParticipant(competitionID, userID int) {
	_ = f.members.Add(context.Background(), nil, &models.CompetitionMember{
		CompetitionID: competitionID,
		UserID:        userID,
		Status:        models.MemberParticipant,
	})
}

func (f *lifecycleFixture) addWeights(competitionID, userID int, start time.Time, weights ...float64) {
	for i, w := range weights {
		uid := userID
		cid := competitionID
		_ = f.measurements.Create(context.Background(), &models.Measurement{
			UserID:        &uid,
			CompetitionID: &cid,
			WeightKg:      w,
			TakenAt:       start.Add(time.Duration(i) * 24 * time.Hour),
		})
	}
}

func TestSyncCompetitionActivates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newLifecycleFixture(t, now)

	c := f.addCompetition(&models.Competition{
		Name:         "Spring Shred",
		CreatorID:    1,
		StartDate:    now.Add(-2 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodPercentage,
		Status:       models.StatusUpcoming,
	})
	f.addParticipant(c.ID, 1)
	f.addParticipant(c.ID, 2)

	got, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)

	started := f.notifier.byType(models.NotificationCompetitionStarted)
	assert.Len(t, started, 2)

	// A second sync at the same instant must not re-announce.
	_, err = f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.byType(models.NotificationCompetitionStarted), 2)
}

func TestSyncCompetitionEntersGracePeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30*24*time.Hour + time.Hour) // an hour past the end date
	f := newLifecycleFixture(t, now)

	c := f.addCompetition(&models.Competition{
		Name:         "January Reset",
		CreatorID:    1,
		StartDate:    start,
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusActive,
	})
	f.addParticipant(c.ID, 1)

	got, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGracePeriod, got.Status)
	assert.Len(t, f.notifier.byType(models.NotificationGracePeriod), 1)
}

func TestSyncCompetitionCompletes(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30*24*time.Hour + 25*time.Hour) // past the grace window
	f := newLifecycleFixture(t, now)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	c := f.addCompetition(&models.Competition{
		Name:               "New Year Challenge",
		CreatorID:          1,
		StartDate:          start,
		DurationDays:       30,
		Method:             models.MethodPercentage,
		WinnerDistribution: models.WinnersTop1,
		Status:             models.StatusGracePeriod,
	})
	f.addParticipant(c.ID, 1)
	f.addParticipant(c.ID, 2)
	f.addParticipant(c.ID, 3)
	f.addWeights(c.ID, 1, start, 100, 90) // 10.00% lost, the winner
	f.addWeights(c.ID, 2, start, 80, 76)  // 5.00%
	f.addWeights(c.ID, 3, start, 95)      // single entry, unscored

	got, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)

	require.Len(t, got.Results, 3)
	assert.Equal(t, 1, got.Results[0].UserID)
	assert.Equal(t, 10.0, got.Results[0].Score)
	assert.True(t, got.Results[0].IsWinner)
	assert.Equal(t, 2, got.Results[1].UserID)
	assert.Equal(t, 5.0, got.Results[1].Score)
	assert.False(t, got.Results[1].IsWinner)
	assert.Equal(t, 3, got.Results[2].UserID)
	assert.False(t, got.Results[2].HasMeasurements)
	assert.False(t, got.Results[2].IsWinner)

	winners := f.notifier.byType(models.NotificationWinner)
	require.Len(t, winners, 1)
	assert.Equal(t, 1, winners[0].UserID)
	assert.Len(t, f.notifier.byType(models.NotificationResultsPublished), 2)

	// Replaying the sweep after completion must not duplicate results
	// or notifications.
	_, err = f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.byType(models.NotificationWinner), 1)

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSyncCompetitionCanceledIsAbsorbing(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(100 * 24 * time.Hour)
	f := newLifecycleFixture(t, now)

	c := f.addCompetition(&models.Competition{
		Name:         "Abandoned",
		CreatorID:    1,
		StartDate:    start,
		DurationDays: 7,
		Method:       models.MethodAbsolute,
		Status:       models.StatusCanceled,
	})

	got, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, got.Status)
	assert.Zero(t, f.notifier.count())
}

func TestCancelAuthorization(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newLifecycleFixture(t, now)

	creator := &models.User{Email: "creator@example.com", Role: models.RoleUser, DisplayName: "Creator"}
	stranger := &models.User{Email: "other@example.com", Role: models.RoleUser, DisplayName: "Other"}
	admin := &models.User{Email: "admin@example.com", Role: models.RoleAdmin, DisplayName: "Admin"}
	f.users.put(creator)
	f.users.put(stranger)
	f.users.put(admin)

	c := f.addCompetition(&models.Competition{
		Name:         "Private Push",
		CreatorID:    creator.ID,
		StartDate:    now.Add(7 * 24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})
	f.addParticipant(c.ID, creator.ID)

	err := f.service.Cancel(context.Background(), c.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	err = f.service.Cancel(context.Background(), c.ID, admin.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.byType(models.NotificationCompetitionCanceled), 1)

	// Canceling again is a no-op.
	err = f.service.Cancel(context.Background(), c.ID, creator.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.byType(models.NotificationCompetitionCanceled), 1)
}

func TestCancelCompletedCompetitionFails(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newLifecycleFixture(t, now)

	creator := &models.User{Email: "creator@example.com", Role: models.RoleUser, DisplayName: "Creator"}
	f.users.put(creator)

	c := f.addCompetition(&models.Competition{
		Name:         "Done Deal",
		CreatorID:    creator.ID,
		StartDate:    now.Add(-60 * 24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusCompleted,
	})

	err := f.service.Cancel(context.Background(), c.ID, creator.ID)
	assert.ErrorIs(t, err, ErrCompetitionCompleted)
}

func TestSyncAllSweepsEveryOpenCompetition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newLifecycleFixture(t, now)

	active := f.addCompetition(&models.Competition{
		Name:         "Should Activate",
		CreatorID:    1,
		StartDate:    now.Add(-time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})
	untouched := f.addCompetition(&models.Competition{
		Name:         "Still Upcoming",
		CreatorID:    1,
		StartDate:    now.Add(48 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})

	require.NoError(t, f.service.SyncAll(context.Background()))

	got, err := f.competitions.GetByID(context.Background(), active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)

	got, err = f.competitions.GetByID(context.Background(), untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, got.Status)
}

func TestCompletionEmailsParticipants(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30*24*time.Hour + 25*time.Hour)
	f := newLifecycleFixture(t, now)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	champ := f.users.put(&models.User{Email: "champ@example.com", Role: models.RoleUser, DisplayName: "Champ"})
	runner := f.users.put(&models.User{Email: "runner@example.com", Role: models.RoleUser, DisplayName: "Runner"})

	c := f.addCompetition(&models.Competition{
		Name:               "Email Run",
		CreatorID:          champ.ID,
		StartDate:          start,
		DurationDays:       30,
		Method:             models.MethodPercentage,
		WinnerDistribution: models.WinnersTop1,
		Status:             models.StatusGracePeriod,
	})
	f.addParticipant(c.ID, champ.ID)
	f.addParticipant(c.ID, runner.ID)
	f.addWeights(c.ID, champ.ID, start, 100, 88)
	f.addWeights(c.ID, runner.ID, start, 90, 87)

	_, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)

	require.Len(t, f.mailer.winner, 1)
	assert.Equal(t, "champ@example.com", f.mailer.winner[0].to)
	assert.Equal(t, "Email Run", f.mailer.winner[0].competition)
	assert.Equal(t, 1, f.mailer.winner[0].place)
	assert.Equal(t, []string{"runner@example.com"}, f.mailer.statusRecipients("completed"))

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestActivationAndCancelEmailParticipants(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f := newLifecycleFixture(t, now)

	creator := f.users.put(&models.User{Email: "creator@example.com", Role: models.RoleUser, DisplayName: "Creator"})
	buddy := f.users.put(&models.User{Email: "buddy@example.com", Role: models.RoleUser, DisplayName: "Buddy"})

	c := f.addCompetition(&models.Competition{
		Name:         "Mail Check",
		CreatorID:    creator.ID,
		StartDate:    now.Add(-time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusUpcoming,
	})
	f.addParticipant(c.ID, creator.ID)
	f.addParticipant(c.ID, buddy.ID)

	_, err := f.service.SyncCompetition(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"buddy@example.com", "creator@example.com"}, f.mailer.statusRecipients("started"))

	require.NoError(t, f.service.Cancel(context.Background(), c.ID, creator.ID))
	assert.Equal(t, []string{"buddy@example.com", "creator@example.com"}, f.mailer.statusRecipients("canceled"))
	assert.Empty(t, f.mailer.winner)
}
