package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type listingRepository struct {
	mu       sync.RWMutex
	listings map[string]entity.FoodListing
}

func NewListingRepository() repository.ListingRepository {
	return &listingRepository{listings: make(map[string]entity.FoodListing)}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.FoodListing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.Status == "" {
		listing.Status = entity.ListingAvailable
	}
	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = *listing
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*entity.FoodListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.FoodListing, int64, error) {
	r.mu.RLock()
	var matched []*entity.FoodListing
	for _, l := range r.listings {
		if filter.DonorID != "" && l.DonorID != filter.DonorID {
			continue
		}
		if filter.Type != "" && l.Type != filter.Type {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if !filter.ActiveAt.IsZero() && !l.ExpiresAt.After(filter.ActiveAt) {
			continue
		}
		if !l.MatchesSearch(filter.Search) {
			continue
		}
		l := l
		matched = append(matched, &l)
	}
	r.mu.RUnlock()

	entity.SortListings(matched, filter.Sort)

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *listingRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.update(id, func(l *entity.FoodListing) error {
		l.ViewCount++
		return nil
	})
	return err
}

func (r *listingRepository) Reserve(ctx context.Context, id string) error {
	_, err := r.update(id, func(l *entity.FoodListing) error {
		if l.Status != entity.ListingAvailable {
			return errors.BadRequest("Listing is not available", nil)
		}
		l.Status = entity.ListingReserved
		l.OrderCount++
		return nil
	})
	return err
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.update(id, func(l *entity.FoodListing) error {
		l.Status = status
		return nil
	})
	return err
}

func (r *listingRepository) Update(ctx context.Context, id string, fn repository.ListingMutation) (*entity.FoodListing, error) {
	return r.update(id, fn)
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return errors.NotFound("Listing", nil)
	}
	delete(r.listings, id)
	return nil
}

func (r *listingRepository) update(id string, fn func(l *entity.FoodListing) error) (*entity.FoodListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	if err := fn(&listing); err != nil {
		return nil, err
	}
	listing.UpdatedAt = time.Now()
	r.listings[id] = listing
	return &listing, nil
}
