package router

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/handler"
)

// SetupDevRouter must only be called in development.
func SetupDevRouter(api *echo.Group, devTokenHandler *handler.DevTokenHandler) {
	api.POST("/dev/token", devTokenHandler.GenerateToken)
}
