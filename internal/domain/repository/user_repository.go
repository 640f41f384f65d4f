package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIDs returns the users that exist, keyed by id. Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error)
	// List returns a page of users, newest first, and the total count.
	List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error)
	SetOnline(ctx context.Context, id string, online bool) error
	IncrementStats(ctx context.Context, id string, donations, mealsSaved int) error
	UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error
}
