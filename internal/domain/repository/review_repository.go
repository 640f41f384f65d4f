package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type ReviewRepository interface {
	// Create fails with a conflict when the reviewer already reviewed the
	// reviewee for the same order.
	Create(ctx context.Context, review *entity.Review) error
	ListByReviewee(ctx context.Context, revieweeID string) ([]*entity.Review, error)
}
