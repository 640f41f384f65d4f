package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
)

// SetupChatRouter sets up the REST side of chat. Live messages go over /ws.
func SetupChatRouter(api *echo.Group, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chat := api.Group("/chat", authMiddleware.Authenticate)

	chat.GET("", chatHandler.GetUserChats)
	chat.GET("/:id", chatHandler.GetChatByID)
	chat.POST("", chatHandler.CreateChat)
}
