package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws. The handler authenticates the handshake itself
// so browsers can pass the credential as ?token=.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
