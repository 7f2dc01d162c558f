package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/internal/repository/postgres"
	"github.com/salesdeck/crm-api/pkg/logger"
	"github.com/salesdeck/crm-api/pkg/messaging"
)

// Channel the in-app fan-out events are published on.
const EventChannel = "notifications"

// Service is the in-app notification sink. Notify is best-effort: it
// never returns an error, because sweep and evaluator callers must not
// fail on a notification problem.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, notifType, title, body string, dealID *uuid.UUID)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo   repository.NotificationRepository
	broker messaging.Broker
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		broker: broker,
		logger: log,
	}
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, notifType, title, body string, dealID *uuid.UUID) {
	n := &model.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		DealID: dealID,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if postgres.IsUndefinedTable(err) {
			s.logger.Debug("notifications relation missing, skipping", "type", notifType)
			return
		}
		s.logger.Error(err, "failed to create notification", "user_id", userID.String(), "type", notifType)
		return
	}

	if s.broker == nil {
		return
	}

	event := &model.NotificationEvent{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		DealID:    n.DealID,
		CreatedAt: n.CreatedAt,
	}
	if err := s.broker.Publish(ctx, EventChannel, event); err != nil {
		// Fan-out is best-effort; the row is already persisted.
		s.logger.Warn("failed to publish notification event", "notification_id", n.ID.String(), "error", err.Error())
	}
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return []*model.Notification{}, nil
		}
		return nil, err
	}
	return notifications, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
