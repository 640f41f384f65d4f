package usecase

import (
	"context"
	"strings"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/metrics"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
)

const defaultNotificationLimit = 50

type NotifyInput struct {
	RecipientID string
	Kind        string
	Title       string
	Message     string
	Link        string
	RelatedID   string
}

type NotificationList struct {
	Notifications []*entity.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
}

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	publisher        Publisher
	metrics          *metrics.Metrics
	listLimit        int
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	publisher Publisher,
	m *metrics.Metrics,
	listLimit int,
) *NotificationUseCase {
	if listLimit <= 0 {
		listLimit = defaultNotificationLimit
	}
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		metrics:          m,
		listLimit:        listLimit,
	}
}

// Notify persists the notification and then pushes it to the recipient's inbox
// room. The record is stored whether or not the recipient is connected.
func (uc *NotificationUseCase) Notify(ctx context.Context, input NotifyInput) (*entity.Notification, error) {
	if strings.TrimSpace(input.RecipientID) == "" {
		return nil, errors.Validation("Notification recipient is required")
	}
	if !entity.ValidNotificationType(input.Kind) {
		return nil, errors.Validation("Unknown notification type: " + input.Kind)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.Validation("Notification title is required")
	}

	notification := &entity.Notification{
		UserID:    input.RecipientID,
		Type:      input.Kind,
		Title:     input.Title,
		Message:   input.Message,
		Link:      input.Link,
		RelatedID: input.RelatedID,
	}
	if err := uc.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}

	uc.publisher.BroadcastToRoom(ws.InboxRoom(input.RecipientID), ws.EventNotification, notification)
	uc.metrics.RecordNotification(input.Kind)

	return notification, nil
}

func (uc *NotificationUseCase) List(ctx context.Context, userID string) (*NotificationList, error) {
	notifications, err := uc.notificationRepo.ListByUser(ctx, userID, uc.listLimit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []*entity.Notification{}
	}

	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return uc.notificationRepo.MarkAllRead(ctx, userID)
}

// MarkRead flips one notification owned by userID to read.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, id string) (*entity.Notification, error) {
	notification, err := uc.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.UserID != userID {
		return nil, errors.Forbidden("You can only modify your own notifications", nil)
	}

	if !notification.Read {
		if err := uc.notificationRepo.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		notification.Read = true
	}
	return notification, nil
}
