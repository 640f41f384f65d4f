package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.Internal("Failed to create order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapGetError("Order", err)
	}

	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order data", err)
	}
	order.ID = doc.Ref.ID
	return &order, nil
}

func (r *firestoreOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Order, error) {
	return r.listBy(ctx, "buyerId", buyerID)
}

func (r *firestoreOrderRepository) ListByDonor(ctx context.Context, donorID string) ([]*entity.Order, error) {
	return r.listBy(ctx, "donorId", donorID)
}

func (r *firestoreOrderRepository) Mutate(ctx context.Context, id string, fn repository.OrderMutation) (*entity.Order, error) {
	docRef := r.client.Collection(ordersCollection).Doc(id)

	var result *entity.Order
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return mapGetError("Order", err)
		}

		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			return errors.Internal("Failed to parse order data", err)
		}
		order.ID = doc.Ref.ID

		if err := fn(&order); err != nil {
			return err
		}

		order.UpdatedAt = time.Now()
		result = &order
		return tx.Set(docRef, &order)
	})
	if err != nil {
		return nil, mapWriteError("Order", err)
	}

	return result, nil
}

func (r *firestoreOrderRepository) listBy(ctx context.Context, field, userID string) ([]*entity.Order, error) {
	docs, err := r.client.Collection(ordersCollection).
		Where(field, "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch orders", err)
	}

	orders := make([]*entity.Order, 0, len(docs))
	for _, doc := range docs {
		var order entity.Order
		if err := doc.DataTo(&order); err != nil {
			continue
		}
		order.ID = doc.Ref.ID
		orders = append(orders, &order)
	}
	return orders, nil
}
