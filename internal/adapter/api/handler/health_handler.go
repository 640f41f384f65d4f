package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "foodshare/internal/infrastructure/websocket"
)

type HealthHandler struct {
	manager *ws.Manager
}

func NewHealthHandler(manager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		manager: manager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"connections": h.manager.ConnectionCount(),
	})
}
