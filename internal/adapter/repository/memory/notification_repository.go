package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type notificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]entity.Notification
}

func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{notifications: make(map[string]entity.Notification)}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	r.mu.RLock()
	var list []*entity.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			n := n
			list = append(list, &n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for id, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}
