package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfun/competition-system/models"
)

type testimonialFixture struct {
	*lifecycleFixture
	testimonials *fakeTestimonialRepo
	service      TestimonialService
}

func newTestimonialFixture(t *testing.T, now time.Time) *testimonialFixture {
	t.Helper()
	lf := newLifecycleFixture(t, now)
	repo := newFakeTestimonialRepo()
	return &testimonialFixture{
		lifecycleFixture: lf,
		testimonials:     repo,
		service:          NewTestimonialService(repo, lf.competitions, lf.members),
	}
}

func (f *testimonialFixture) completedCompetition(name string, participants ...int) *models.Competition {
	c := f.addCompetition(&models.Competition{
		Name:         name,
		CreatorID:    1,
		StartDate:    f.clock.Now().Add(-60 * 24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodPercentage,
		Status:       models.StatusCompleted,
	})
	for _, userID := range participants {
		f.addParticipant(c.ID, userID)
	}
	return c
}

func TestSubmitTestimonialGates(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newTestimonialFixture(t, now)

	c := f.completedCompetition("Spring Finish", 1)
	running := f.addCompetition(&models.Competition{
		Name:         "Still Going",
		CreatorID:    1,
		StartDate:    now.Add(-24 * time.Hour),
		DurationDays: 30,
		Method:       models.MethodAbsolute,
		Status:       models.StatusActive,
	})
	f.addParticipant(running.ID, 1)

	_, err := f.service.Submit(context.Background(), 1, SubmitTestimonialInput{CompetitionID: c.ID, Text: "   "})
	assert.ErrorIs(t, err, ErrTestimonialTextRequired)

	_, err = f.service.Submit(context.Background(), 1, SubmitTestimonialInput{CompetitionID: running.ID, Text: "Too early"})
	assert.ErrorIs(t, err, ErrCompetitionNotCompleted)

	_, err = f.service.Submit(context.Background(), 2, SubmitTestimonialInput{CompetitionID: c.ID, Text: "Not a member"})
	assert.ErrorIs(t, err, ErrNotParticipant)

	lost := 7.5
	got, err := f.service.Submit(context.Background(), 1, SubmitTestimonialInput{
		CompetitionID: c.ID,
		Text:          "  Lost more than I hoped for.  ",
		WeightLostKg:  &lost,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lost more than I hoped for.", got.Text)
	assert.Equal(t, models.TestimonialPending, got.Status)
}

func TestListTestimonialsModerationQueue(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newTestimonialFixture(t, now)

	c := f.completedCompetition("Winter Wrap", 1, 2)

	approved, err := f.service.Submit(context.Background(), 1, SubmitTestimonialInput{CompetitionID: c.ID, Text: "Great experience"})
	require.NoError(t, err)
	pending, err := f.service.Submit(context.Background(), 2, SubmitTestimonialInput{CompetitionID: c.ID, Text: "Waiting on review"})
	require.NoError(t, err)

	moderatorID := 9
	require.NoError(t, f.service.Moderate(context.Background(), approved.ID, moderatorID, models.TestimonialApproved))

	public, err := f.service.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)

	queue, err := f.service.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, approved.ID, queue[0].ID)
	assert.Equal(t, pending.ID, queue[1].ID)
	assert.Equal(t, models.TestimonialPending, queue[1].Status)
}

func TestModerateTestimonial(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := newTestimonialFixture(t, now)

	c := f.completedCompetition("Moderated", 1)
	sub, err := f.service.Submit(context.Background(), 1, SubmitTestimonialInput{CompetitionID: c.ID, Text: "Check me"})
	require.NoError(t, err)

	err = f.service.Moderate(context.Background(), sub.ID, 9, models.TestimonialStatus("published"))
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = f.service.Moderate(context.Background(), sub.ID+100, 9, models.TestimonialApproved)
	assert.ErrorIs(t, err, ErrTestimonialNotFound)

	require.NoError(t, f.service.Moderate(context.Background(), sub.ID, 9, models.TestimonialApproved))
	got, err := f.testimonials.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TestimonialApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, 9, *got.ApprovedBy)

	// Hiding clears the approval attribution.
	require.NoError(t, f.service.Moderate(context.Background(), sub.ID, 9, models.TestimonialHidden))
	got, err = f.testimonials.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TestimonialHidden, got.Status)
	assert.Nil(t, got.ApprovedBy)

	require.NoError(t, f.service.Delete(context.Background(), sub.ID))
	err = f.service.Delete(context.Background(), sub.ID)
	assert.ErrorIs(t, err, ErrTestimonialNotFound)
}
