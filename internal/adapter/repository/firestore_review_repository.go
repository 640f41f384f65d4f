package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

// The document id is derived from reviewer, reviewee and order so a second
// review of the same order collides on Create.
func reviewDocID(review *entity.Review) string {
	return review.ReviewerID + "_" + review.RevieweeID + "_" + review.OrderID
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.ID = reviewDocID(review)
	review.CreatedAt = time.Now()

	_, err := r.client.Collection(reviewsCollection).Doc(review.ID).Create(ctx, review)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("You have already reviewed this order")
		}
		return errors.Internal("Failed to create review", err)
	}

	return nil
}

func (r *firestoreReviewRepository) ListByReviewee(ctx context.Context, revieweeID string) ([]*entity.Review, error) {
	iter := r.client.Collection(reviewsCollection).
		Where("revieweeId", "==", revieweeID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var reviews []*entity.Review
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate reviews", err)
		}

		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			return nil, errors.Internal("Failed to parse review data", err)
		}
		review.ID = doc.Ref.ID
		reviews = append(reviews, &review)
	}

	return reviews, nil
}
