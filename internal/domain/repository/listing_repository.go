package repository

import (
	"context"
	"time"

	"foodshare/internal/domain/entity"
)

type ListingFilter struct {
	DonorID  string
	Type     string
	Category string
	Status   string
	// Listings expiring at or before this instant are excluded when set
	ActiveAt time.Time
	// Search matches title, description and tags case-insensitively
	Search   string
	// Sort is one of the entity.ListingSort values
	Sort     string
	Limit    int
	Offset   int
}

// ListingMutation edits a loaded listing in place. Returning an error aborts the write.
type ListingMutation func(listing *entity.FoodListing) error

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.FoodListing) error
	GetByID(ctx context.Context, id string) (*entity.FoodListing, error)
	List(ctx context.Context, filter ListingFilter) ([]*entity.FoodListing, int64, error)
	IncrementViews(ctx context.Context, id string) error
	// Reserve moves an available listing to reserved and bumps its order count.
	Reserve(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Update(ctx context.Context, id string, fn ListingMutation) (*entity.FoodListing, error)
	Delete(ctx context.Context, id string) error
}
