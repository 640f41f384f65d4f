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

type orderRepository struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

func NewOrderRepository() repository.OrderRepository {
	return &orderRepository{orders: make(map[string]entity.Order)}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	return &order, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Order, error) {
	return r.list(func(o entity.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *orderRepository) ListByDonor(ctx context.Context, donorID string) ([]*entity.Order, error) {
	return r.list(func(o entity.Order) bool { return o.DonorID == donorID }), nil
}

func (r *orderRepository) Mutate(ctx context.Context, id string, fn repository.OrderMutation) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	if err := fn(&order); err != nil {
		return nil, err
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return &order, nil
}

func (r *orderRepository) list(match func(o entity.Order) bool) []*entity.Order {
	r.mu.RLock()
	var orders []*entity.Order
	for _, o := range r.orders {
		if match(o) {
			o := o
			orders = append(orders, &o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
