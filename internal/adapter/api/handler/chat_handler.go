package handler

import (
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ListingID string `json:"listingId"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// CreateChat reuses or opens the conversation with userId and sends the first message.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.StartChat(c.Request().Context(), middleware.CurrentUser(c), usecase.StartChatInput{
		RecipientID: req.UserID,
		ListingID:   req.ListingID,
		Message:     req.Message,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// GetUserChats lists the caller's conversations, newest activity first.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	chats, err := h.chatUseCase.ListChats(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

// GetChatByID returns the conversation and marks the caller's incoming messages read.
func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID := c.Get(middleware.ContextUserID).(string)

	chat, err := h.chatUseCase.GetChat(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}
