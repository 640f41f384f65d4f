package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

// DevTokenHandler mints bearer tokens for local testing. Only routed in development.
type DevTokenHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewDevTokenHandler(authUseCase *usecase.AuthUseCase) *DevTokenHandler {
	return &DevTokenHandler{
		authUseCase: authUseCase,
	}
}

type devTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.authUseCase.IssueToken(c.Request().Context(), req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"token":  token,
		"userId": req.UserID,
	})
}
