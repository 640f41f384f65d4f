// Package memory holds process-local repository implementations. They back the
// "memory" storage driver for local development and serve as fakes in tests.
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

type userRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

func NewUserRepository() repository.UserRepository {
	return &userRepository{users: make(map[string]entity.User)}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = entity.RoleBuyer
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		return errors.Conflict("User already exists")
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]*entity.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users[id] = &user
		}
	}
	return users, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.RLock()
	users := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		users = append(users, &u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	total := int64(len(users))
	if offset > len(users) {
		offset = len(users)
	}
	end := len(users)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return users[offset:end], total, nil
}

func (r *userRepository) SetOnline(ctx context.Context, id string, online bool) error {
	return r.update(id, func(u *entity.User) {
		u.Online = online
		u.LastSeen = time.Now()
	})
}

func (r *userRepository) IncrementStats(ctx context.Context, id string, donations, mealsSaved int) error {
	return r.update(id, func(u *entity.User) {
		u.TotalDonations += donations
		u.TotalMealsSaved += mealsSaved
	})
}

func (r *userRepository) UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	return r.update(id, func(u *entity.User) {
		u.Rating = rating
		u.ReviewCount = reviewCount
	})
}

func (r *userRepository) update(id string, fn func(u *entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	fn(&user)
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}
