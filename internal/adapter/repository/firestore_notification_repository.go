package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	_, err := r.client.Collection(notificationsCollection).Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	doc, err := r.client.Collection(notificationsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapGetError("Notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return nil, errors.Internal("Failed to parse notification data", err)
	}
	notification.ID = doc.Ref.ID
	return &notification, nil
}

func (r *firestoreNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	query := r.client.Collection(notificationsCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch notifications", err)
	}

	notifications := make([]*entity.Notification, 0, len(docs))
	for _, doc := range docs {
		var n entity.Notification
		if err := doc.DataTo(&n); err != nil {
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, &n)
	}
	return notifications, nil
}

func (r *firestoreNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	q := r.unreadQuery(userID)
	result, err := q.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, errors.Internal("Failed to count notifications", err)
	}

	switch v := result["count"].(type) {
	case *firestorepb.Value:
		return v.GetIntegerValue(), nil
	case int64:
		return v, nil
	}
	return 0, errors.Internal("Unexpected count aggregation result", nil)
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.client.Collection(notificationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		return mapWriteError("Notification", err)
	}
	return nil
}

func (r *firestoreNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	docs, err := r.unreadQuery(userID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to fetch unread notifications", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue notification update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	updated := 0
	for _, job := range jobs {
		if _, err := job.Results(); err == nil {
			updated++
		}
	}
	if updated < len(jobs) {
		return updated, errors.Internal("Failed to mark some notifications as read", nil)
	}
	return updated, nil
}

func (r *firestoreNotificationRepository) unreadQuery(userID string) firestore.Query {
	return r.client.Collection(notificationsCollection).
		Where("userId", "==", userID).
		Where("read", "==", false)
}
