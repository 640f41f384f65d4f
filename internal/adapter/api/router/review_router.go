package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupReviewRouter(api *echo.Group, reviewHandler *handler.ReviewHandler, authMiddleware *middleware.AuthMiddleware) {
	api.GET("/reviews/user/:id", reviewHandler.GetUserReviews)
	api.POST("/reviews", reviewHandler.CreateReview, authMiddleware.Authenticate)
}
