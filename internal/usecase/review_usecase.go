package usecase

import (
	"context"
	"fmt"
	"math"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	orderRepo  repository.OrderRepository
	notifier   Notifier
}

func NewReviewUseCase(
	reviewRepo repository.ReviewRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	notifier Notifier,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		notifier:   notifier,
	}
}

type CreateReviewInput struct {
	RevieweeID string
	ListingID  string
	OrderID    string
	Rating     int
	Comment    string
}

type ReviewView struct {
	*entity.Review
	Reviewer *entity.UserSummary `json:"reviewer,omitempty"`
}

func (uc *ReviewUseCase) Create(ctx context.Context, reviewer *entity.User, input CreateReviewInput) (*entity.Review, error) {
	if input.RevieweeID == reviewer.ID {
		return nil, errors.BadRequest("You cannot review yourself", nil)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.Validation("Rating must be between 1 and 5")
	}

	if _, err := uc.userRepo.GetByID(ctx, input.RevieweeID); err != nil {
		return nil, err
	}

	if input.OrderID != "" {
		order, err := uc.orderRepo.GetByID(ctx, input.OrderID)
		if err != nil {
			return nil, err
		}
		if !order.HasParticipant(reviewer.ID) || !order.HasParticipant(input.RevieweeID) {
			return nil, errors.Forbidden("You can only review the other party of your order", nil)
		}
		if input.ListingID == "" {
			input.ListingID = order.ListingID
		}
	}

	review := &entity.Review{
		ReviewerID: reviewer.ID,
		RevieweeID: input.RevieweeID,
		ListingID:  input.ListingID,
		OrderID:    input.OrderID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := uc.refreshRating(ctx, input.RevieweeID); err != nil {
		logger.Error().Err(err).Str("user", input.RevieweeID).Msg("failed to update rating")
	}

	_, err := uc.notifier.Notify(ctx, NotifyInput{
		RecipientID: input.RevieweeID,
		Kind:        entity.NotificationReview,
		Title:       "New Review",
		Message:     fmt.Sprintf("%s left you a %d-star review", reviewer.Name, input.Rating),
		Link:        "/profile/" + input.RevieweeID,
		RelatedID:   review.ID,
	})
	if err != nil {
		logger.Error().Err(err).Str("review", review.ID).Msg("failed to notify reviewee")
	}

	return review, nil
}

func (uc *ReviewUseCase) ListForUser(ctx context.Context, userID string) ([]ReviewView, error) {
	reviews, err := uc.reviewRepo.ListByReviewee(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ReviewerID)
	}
	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		view := ReviewView{Review: r}
		if u, ok := users[r.ReviewerID]; ok {
			summary := u.Summary()
			view.Reviewer = &summary
		}
		views = append(views, view)
	}
	return views, nil
}

// refreshRating recomputes the average, rounded to one decimal.
func (uc *ReviewUseCase) refreshRating(ctx context.Context, userID string) error {
	reviews, err := uc.reviewRepo.ListByReviewee(ctx, userID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}

	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))
	return uc.userRepo.UpdateRating(ctx, userID, math.Round(avg*10)/10, len(reviews))
}
