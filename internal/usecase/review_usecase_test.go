package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/errors"
)

func TestCreateReviewUpdatesRating(t *testing.T) {
	s := newStores()
	pub := &recordingPublisher{}
	notes := NewNotificationUseCase(s.notifications, pub, nil, 50)
	uc := NewReviewUseCase(s.reviews, s.users, s.orders, notes)
	ctx := context.Background()

	seedUser(t, s.users, "donor", "Dana")
	a := seedUser(t, s.users, "a", "Ann")
	b := seedUser(t, s.users, "b", "Bea")
	c := seedUser(t, s.users, "c", "Cal")

	for _, r := range []struct {
		reviewer *entity.User
		rating   int
	}{{a, 5}, {b, 4}, {c, 4}} {
		_, err := uc.Create(ctx, r.reviewer, CreateReviewInput{RevieweeID: "donor", Rating: r.rating})
		require.NoError(t, err)
	}

	donor, err := s.users.GetByID(ctx, "donor")
	require.NoError(t, err)
	assert.Equal(t, 4.3, donor.Rating)
	assert.Equal(t, 3, donor.ReviewCount)

	list, err := notes.List(ctx, "donor")
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 3)
	assert.Equal(t, entity.NotificationReview, list.Notifications[0].Type)

	views, err := uc.ListForUser(ctx, "donor")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.NotNil(t, views[0].Reviewer)
}

func TestCreateReviewErrors(t *testing.T) {
	s := newStores()
	notes := NewNotificationUseCase(s.notifications, &recordingPublisher{}, nil, 50)
	uc := NewReviewUseCase(s.reviews, s.users, s.orders, notes)
	ctx := context.Background()

	a := seedUser(t, s.users, "a", "Ann")
	seedUser(t, s.users, "b", "Bea")
	stranger := seedUser(t, s.users, "s", "Sam")

	_, err := uc.Create(ctx, a, CreateReviewInput{RevieweeID: "a", Rating: 5})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = uc.Create(ctx, a, CreateReviewInput{RevieweeID: "b", Rating: 6})
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.Create(ctx, a, CreateReviewInput{RevieweeID: "nobody", Rating: 3})
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	order := &entity.Order{BuyerID: "a", DonorID: "b", ListingID: "l1", Quantity: 1}
	require.NoError(t, s.orders.Create(ctx, order))

	_, err = uc.Create(ctx, stranger, CreateReviewInput{RevieweeID: "b", OrderID: order.ID, Rating: 3})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	review, err := uc.Create(ctx, a, CreateReviewInput{RevieweeID: "b", OrderID: order.ID, Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, "l1", review.ListingID)

	_, err = uc.Create(ctx, a, CreateReviewInput{RevieweeID: "b", OrderID: order.ID, Rating: 4})
	assert.True(t, errors.Is(err, errors.CodeConflict))
}
