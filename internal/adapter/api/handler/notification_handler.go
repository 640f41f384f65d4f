package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

type NotificationHandler struct {
	notificationUseCase *usecase.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase *usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	list, err := h.notificationUseCase.List(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, list)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	updated, err := h.notificationUseCase.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"updated": updated})
}

// MarkRead rejects notifications owned by another user with 403.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	notification, err := h.notificationUseCase.MarkRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, notification)
}
