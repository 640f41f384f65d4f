package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

type createReviewRequest struct {
	RevieweeID string `json:"revieweeId" validate:"required"`
	ListingID  string `json:"listingId"`
	OrderID    string `json:"orderId"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=1000"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.Create(c.Request().Context(), middleware.CurrentUser(c), usecase.CreateReviewInput{
		RevieweeID: req.RevieweeID,
		ListingID:  req.ListingID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, review)
}

func (h *ReviewHandler) GetUserReviews(c echo.Context) error {
	reviews, err := h.reviewUseCase.ListForUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, reviews)
}
