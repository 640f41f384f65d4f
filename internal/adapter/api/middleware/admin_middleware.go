package middleware

import (
	"github.com/labstack/echo/v4"

	"foodshare/pkg/errors"
	"foodshare/pkg/response"
)

// AdminOnly must run after Authenticate.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !user.IsAdmin() {
			return response.Error(c, errors.Forbidden("Admin privileges required", nil))
		}

		return next(c)
	}
}
