package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

// fakeClock returns a fixed instant so window and status checks are
// deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, userID int, notif models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notif.UserID = userID
	n.sent = append(n.sent, notif)
}

func (n *fakeNotifier) byType(t models.NotificationType) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, notif := range n.sent {
		if notif.Type == t {
			out = append(out, notif)
		}
	}
	return out
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type sentEmail struct {
	to          string
	competition string
	place       int
	status      string
}

type fakeMailer struct {
	mu      sync.Mutex
	winner  []sentEmail
	statusM []sentEmail
}

func (m *fakeMailer) SendWinnerEmail(userEmail, competitionName string, place int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.winner = append(m.winner, sentEmail{to: userEmail, competition: competitionName, place: place})
	return nil
}

func (m *fakeMailer) SendCompetitionStatusEmail(userEmail, competitionName, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusM = append(m.statusM, sentEmail{to: userEmail, competition: competitionName, status: status})
	return nil
}

func (m *fakeMailer) statusRecipients(status string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.statusM {
		if e.status == status {
			out = append(out, e.to)
		}
	}
	sort.Strings(out)
	return out
}

type fakeCompetitionRepo struct {
	mu           sync.Mutex
	competitions map[int]*models.Competition
	results      map[int][]models.Result
	nextID       int
	members      *fakeMemberRepo
}

func newFakeCompetitionRepo() *fakeCompetitionRepo {
	return &fakeCompetitionRepo{
		competitions: make(map[int]*models.Competition),
		results:      make(map[int][]models.Result),
		nextID:       1,
	}
}

func (r *fakeCompetitionRepo) put(c *models.Competition) *models.Competition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		c.ID = r.nextID
		r.nextID++
	}
	stored := *c
	stored.Participants, stored.JoinRequests, stored.Results, stored.Winners = nil, nil, nil, nil
	r.competitions[c.ID] = &stored
	return c
}

func (r *fakeCompetitionRepo) Create(_ context.Context, c *models.Competition) error {
	r.put(c)
	return nil
}

func (r *fakeCompetitionRepo) GetByID(_ context.Context, id int) (*models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCompetitionRepo) List(_ context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Competition
	for _, c := range r.competitions {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.CreatorID != nil && c.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.PublicOnly && !c.IsPublic {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCompetitionRepo) ListByParticipant(ctx context.Context, userID int) ([]models.Competition, error) {
	if r.members == nil {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Competition
	for _, m := range r.members.members {
		if m.UserID != userID || m.Status != models.MemberParticipant {
			continue
		}
		if c, ok := r.competitions[m.CompetitionID]; ok {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCompetitionRepo) Update(_ context.Context, c *models.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.competitions[c.ID]; !ok {
		return repositories.ErrCompetitionNotFound
	}
	stored := *c
	stored.Participants, stored.JoinRequests, stored.Results, stored.Winners = nil, nil, nil, nil
	r.competitions[c.ID] = &stored
	return nil
}

func (r *fakeCompetitionRepo) UpdateStatusFrom(_ context.Context, _ repositories.SQLExecutor, id int, expected, next models.CompetitionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitions[id]
	if !ok || c.Status != expected {
		return false, nil
	}
	c.Status = next
	return true, nil
}

func (r *fakeCompetitionRepo) ReassignCreator(_ context.Context, _ repositories.SQLExecutor, id, newCreatorID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.CreatorID = newCreatorID
	return nil
}

func (r *fakeCompetitionRepo) SaveResults(_ context.Context, _ repositories.SQLExecutor, id int, results []models.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id] = append([]models.Result(nil), results...)
	return nil
}

func (r *fakeCompetitionRepo) GetResults(_ context.Context, id int) ([]models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Result(nil), r.results[id]...), nil
}

func (r *fakeCompetitionRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.competitions), nil
}

func (r *fakeCompetitionRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.competitions, id)
	return nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members []models.CompetitionMember
	nextID  int
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{nextID: 1}
}

func (r *fakeMemberRepo) Add(_ context.Context, _ repositories.SQLExecutor, m *models.CompetitionMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.CompetitionID == m.CompetitionID && existing.UserID == m.UserID {
			return repositories.ErrMemberConflict
		}
	}
	m.ID = r.nextID
	r.nextID++
	r.members = append(r.members, *m)
	return nil
}

func (r *fakeMemberRepo) Find(_ context.Context, competitionID, userID int) (*models.CompetitionMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.CompetitionID == competitionID && m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMemberNotFound
}

func (r *fakeMemberRepo) ListByCompetition(_ context.Context, competitionID int) ([]models.CompetitionMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CompetitionMember
	for _, m := range r.members {
		if m.CompetitionID == competitionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, competitionID, userID int, status models.MemberStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].CompetitionID == competitionID && r.members[i].UserID == userID {
			r.members[i].Status = status
			return nil
		}
	}
	return repositories.ErrMemberNotFound
}

func (r *fakeMemberRepo) Remove(_ context.Context, _ repositories.SQLExecutor, competitionID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].CompetitionID == competitionID && r.members[i].UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMemberNotFound
}

func (r *fakeMemberRepo) RemoveUserEverywhere(_ context.Context, _ repositories.SQLExecutor, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.members[:0]
	for _, m := range r.members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	r.members = kept
	return nil
}

func (r *fakeMemberRepo) CountParticipants(_ context.Context, competitionID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.members {
		if m.CompetitionID == competitionID && m.Status == models.MemberParticipant {
			count++
		}
	}
	return count, nil
}

type fakeMeasurementRepo struct {
	mu           sync.Mutex
	measurements []models.Measurement
	nextID       int
}

func newFakeMeasurementRepo() *fakeMeasurementRepo {
	return &fakeMeasurementRepo{nextID: 1}
}

func (r *fakeMeasurementRepo) Create(_ context.Context, m *models.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	r.measurements = append(r.measurements, *m)
	return nil
}

func (r *fakeMeasurementRepo) GetByID(_ context.Context, id int) (*models.Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.measurements {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, repositories.ErrMeasurementNotFound
}

func (r *fakeMeasurementRepo) ListByUser(_ context.Context, userID int, competitionID *int) ([]models.Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Measurement
	for _, m := range r.measurements {
		if m.UserID == nil || *m.UserID != userID {
			continue
		}
		if competitionID != nil && (m.CompetitionID == nil || *m.CompetitionID != *competitionID) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}

func (r *fakeMeasurementRepo) ListByCompetition(_ context.Context, competitionID int) ([]models.Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Measurement
	for _, m := range r.measurements {
		if m.CompetitionID != nil && *m.CompetitionID == competitionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}

func (r *fakeMeasurementRepo) Update(_ context.Context, m *models.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.measurements {
		if r.measurements[i].ID == m.ID {
			r.measurements[i] = *m
			return nil
		}
	}
	return repositories.ErrMeasurementNotFound
}

func (r *fakeMeasurementRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.measurements {
		if r.measurements[i].ID == id {
			r.measurements = append(r.measurements[:i], r.measurements[i+1:]...)
			return nil
		}
	}
	return repositories.ErrMeasurementNotFound
}

func (r *fakeMeasurementRepo) AnonymizeByUser(_ context.Context, _ repositories.SQLExecutor, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.measurements {
		if r.measurements[i].UserID != nil && *r.measurements[i].UserID == userID {
			r.measurements[i].UserID = nil
			r.measurements[i].Anonymized = true
		}
	}
	return nil
}

func (r *fakeMeasurementRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.measurements), nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
}

func (r *fakeUserRepo) put(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	stored := *u
	r.users[u.ID] = &stored
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			r.mu.Unlock()
			return repositories.ErrUserEmailConflict
		}
	}
	r.mu.Unlock()
	r.put(u)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *fakeUserRepo) UpdatePhotoKey(_ context.Context, userID int, column string, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	switch column {
	case "profile_photo_key":
		u.ProfilePhotoKey = key
	case "before_photo_key":
		u.BeforePhotoKey = key
	case "after_photo_key":
		u.AfterPhotoKey = key
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTestimonialRepo struct {
	mu           sync.Mutex
	testimonials map[int]*models.Testimonial
	nextID       int
}

func newFakeTestimonialRepo() *fakeTestimonialRepo {
	return &fakeTestimonialRepo{testimonials: make(map[int]*models.Testimonial), nextID: 1}
}

func (r *fakeTestimonialRepo) Create(_ context.Context, t *models.Testimonial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	cp := *t
	r.testimonials[t.ID] = &cp
	return nil
}

func (r *fakeTestimonialRepo) GetByID(_ context.Context, id int) (*models.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.testimonials[id]
	if !ok {
		return nil, repositories.ErrTestimonialNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTestimonialRepo) List(_ context.Context, approvedOnly bool) ([]models.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Testimonial
	for _, t := range r.testimonials {
		if approvedOnly && t.Status != models.TestimonialApproved {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTestimonialRepo) UpdateStatus(_ context.Context, id int, status models.TestimonialStatus, approvedBy *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.testimonials[id]
	if !ok {
		return repositories.ErrTestimonialNotFound
	}
	t.Status = status
	t.ApprovedBy = approvedBy
	if status == models.TestimonialApproved {
		now := time.Now()
		t.ApprovedAt = &now
	}
	return nil
}

func (r *fakeTestimonialRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.testimonials[id]; !ok {
		return repositories.ErrTestimonialNotFound
	}
	delete(r.testimonials, id)
	return nil
}
