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

type reviewRepository struct {
	mu      sync.RWMutex
	reviews []entity.Review
}

func NewReviewRepository() repository.ReviewRepository {
	return &reviewRepository{}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.ReviewerID == review.ReviewerID &&
			existing.RevieweeID == review.RevieweeID &&
			existing.OrderID == review.OrderID {
			return errors.Conflict("You have already reviewed this order")
		}
	}

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.CreatedAt = time.Now()
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeID string) ([]*entity.Review, error) {
	r.mu.RLock()
	var reviews []*entity.Review
	for _, review := range r.reviews {
		if review.RevieweeID == revieweeID {
			review := review
			reviews = append(reviews, &review)
		}
	}
	r.mu.RUnlock()

	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
