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

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.FoodListing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if listing.Status == "" {
		listing.Status = entity.ListingAvailable
	}

	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.FoodListing, error) {
	doc, err := r.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapGetError("Listing", err)
	}
	return decodeListing(doc)
}

func (r *firestoreListingRepository) List(ctx context.Context, filter repository.ListingFilter) ([]*entity.FoodListing, int64, error) {
	query := r.client.Collection(listingsCollection).Query
	if filter.DonorID != "" {
		query = query.Where("donorId", "==", filter.DonorID)
	}
	if filter.Type != "" {
		query = query.Where("type", "==", filter.Type)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch listings", err)
	}

	// Expiry and search are filtered in memory so the query needs no range or text index
	var matched []*entity.FoodListing
	for _, doc := range docs {
		listing, err := decodeListing(doc)
		if err != nil {
			continue
		}
		if !filter.ActiveAt.IsZero() && !listing.ExpiresAt.After(filter.ActiveAt) {
			continue
		}
		if !listing.MatchesSearch(filter.Search) {
			continue
		}
		matched = append(matched, listing)
	}
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

func (r *firestoreListingRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "viewCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		return mapWriteError("Listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) Reserve(ctx context.Context, id string) error {
	docRef := r.client.Collection(listingsCollection).Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return mapGetError("Listing", err)
		}

		status, err := doc.DataAt("status")
		if err != nil {
			return errors.Internal("Failed to read listing status", err)
		}
		if status != entity.ListingAvailable {
			return errors.BadRequest("Listing is not available", nil)
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: entity.ListingReserved},
			{Path: "orderCount", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		return mapWriteError("Listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return mapWriteError("Listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, id string, fn repository.ListingMutation) (*entity.FoodListing, error) {
	docRef := r.client.Collection(listingsCollection).Doc(id)

	var result *entity.FoodListing
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return mapGetError("Listing", err)
		}

		listing, err := decodeListing(doc)
		if err != nil {
			return err
		}
		if err := fn(listing); err != nil {
			return err
		}

		listing.UpdatedAt = time.Now()
		result = listing
		return tx.Set(docRef, listing)
	})
	if err != nil {
		return nil, mapWriteError("Listing", err)
	}
	return result, nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		return mapWriteError("Listing", err)
	}
	return nil
}

func decodeListing(doc *firestore.DocumentSnapshot) (*entity.FoodListing, error) {
	var listing entity.FoodListing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	listing.ID = doc.Ref.ID
	return &listing, nil
}
