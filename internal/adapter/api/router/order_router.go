package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

func SetupOrderRouter(api *echo.Group, orderHandler *handler.OrderHandler, authMiddleware *middleware.AuthMiddleware) {
	orders := api.Group("/orders", authMiddleware.Authenticate)

	orders.POST("", orderHandler.CreateOrder)
	orders.GET("/my", orderHandler.GetMyOrders)
	orders.PUT("/:id/status", orderHandler.UpdateStatus)
}
