package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	// ListByUser returns the newest notifications first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	// MarkAllRead returns how many notifications were flipped.
	MarkAllRead(ctx context.Context, userID string) (int, error)
}
