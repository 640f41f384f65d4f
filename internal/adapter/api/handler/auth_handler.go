package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
	"foodshare/pkg/utils"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c echo.Context) error {
	return response.Success(c, middleware.CurrentUser(c))
}

func (h *AuthHandler) GetUser(c echo.Context) error {
	user, err := h.authUseCase.GetUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// ListUsers is admin only.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	pagination := utils.GetPaginationParams(c, 20)

	users, total, err := h.authUseCase.ListUsers(c.Request().Context(), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, users, total, pagination.Page, pagination.PageSize)
}
