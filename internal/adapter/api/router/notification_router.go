package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupNotificationRouter(api *echo.Group, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifications := api.Group("/notifications", authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.List)
	notifications.PUT("/read", notificationHandler.MarkAllRead)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)
}
