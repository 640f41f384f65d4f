package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = entity.RoleBuyer
	}

	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		return mapWriteError("User", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapGetError("User", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	users := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, r.client.Collection(usersCollection).Doc(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Internal("Failed to get users", err)
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			continue
		}
		user.ID = doc.Ref.ID
		users[user.ID] = &user
	}

	return users, nil
}

func (r *firestoreUserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	query := r.client.Collection(usersCollection).OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch users", err)
	}
	total := int64(len(allDocs))

	if offset > len(allDocs) {
		offset = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	users := make([]*entity.User, 0, end-offset)
	for _, doc := range allDocs[offset:end] {
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			continue
		}
		user.ID = doc.Ref.ID
		users = append(users, &user)
	}
	return users, total, nil
}

func (r *firestoreUserRepository) SetOnline(ctx context.Context, id string, online bool) error {
	now := time.Now()
	_, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "online", Value: online},
		{Path: "lastSeen", Value: now},
	})
	if err != nil {
		return mapWriteError("User", err)
	}
	return nil
}

func (r *firestoreUserRepository) IncrementStats(ctx context.Context, id string, donations, mealsSaved int) error {
	_, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "totalDonations", Value: firestore.Increment(donations)},
		{Path: "totalMealsSaved", Value: firestore.Increment(mealsSaved)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return mapWriteError("User", err)
	}
	return nil
}

func (r *firestoreUserRepository) UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	_, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "rating", Value: rating},
		{Path: "reviewCount", Value: reviewCount},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return mapWriteError("User", err)
	}
	return nil
}
