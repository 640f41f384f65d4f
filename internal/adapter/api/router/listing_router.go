package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupListingRouter(api *echo.Group, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	// Public routes
	api.GET("/listings", listingHandler.GetListings)
	api.GET("/listings/nearby", listingHandler.GetNearbyListings)
	api.GET("/listings/:id", listingHandler.GetListingByID)

	// Protected routes
	api.GET("/listings/my", listingHandler.GetMyListings, authMiddleware.Authenticate)
	api.POST("/listings", listingHandler.CreateListing, authMiddleware.Authenticate)
	api.PUT("/listings/:id", listingHandler.UpdateListing, authMiddleware.Authenticate)
	api.DELETE("/listings/:id", listingHandler.DeleteListing, authMiddleware.Authenticate)
}
