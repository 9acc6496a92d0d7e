package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fitfun/competition-system/live"
	"github.com/fitfun/competition-system/models"
	"github.com/fitfun/competition-system/repositories"
)

// NotificationSink is what the rest of the service layer depends on.
// Delivery is fire-and-forget: a failed notification is logged, never
// returned, so it cannot roll back the state change that caused it.
type NotificationSink interface {
	Notify(ctx context.Context, userID int, n models.Notification)
}

type NotificationService interface {
	NotificationSink
	ListForUser(ctx context.Context, userID int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

type notificationService struct {
	repo   repositories.NotificationRepository
	hub    *live.Hub
	logger *slog.Logger
}

func NewNotificationService(repo repositories.NotificationRepository, hub *live.Hub, logger *slog.Logger) NotificationService {
	return &notificationService{repo: repo, hub: hub, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, userID int, n models.Notification) {
	n.UserID = userID
	if err := s.repo.Create(ctx, &n); err != nil {
		s.logger.Error("failed to persist notification",
			slog.Int("user_id", userID),
			slog.String("type", string(n.Type)),
			slog.Any("error", err))
		return
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, live.Message{Type: "NOTIFICATION", Payload: n})
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, 100)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID int) error {
	err := s.repo.MarkRead(ctx, id, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.repo.MarkAllRead(ctx, userID)
}
