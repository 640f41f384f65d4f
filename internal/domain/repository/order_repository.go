package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

// OrderMutation edits a loaded order in place. Returning an error aborts the write.
type OrderMutation func(order *entity.Order) error

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Order, error)
	ListByDonor(ctx context.Context, donorID string) ([]*entity.Order, error)
	// Mutate applies fn to the stored order and writes the result atomically, so
	// checks made inside fn hold at commit time.
	Mutate(ctx context.Context, id string, fn OrderMutation) (*entity.Order, error)
}
