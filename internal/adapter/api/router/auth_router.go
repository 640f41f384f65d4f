package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupAuthRouter(api *echo.Group, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	auth := api.Group("/auth", authMiddleware.Authenticate)

	auth.GET("/me", authHandler.Me)
	auth.GET("/user/:id", authHandler.GetUser)
	auth.GET("/users", authHandler.ListUsers, middleware.AdminOnly)
}
