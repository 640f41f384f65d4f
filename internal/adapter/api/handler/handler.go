package handler

import (
	"foodshare/internal/adapter/api"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
)

// Handlers groups every HTTP and websocket entry point for the router.
type Handlers struct {
	Auth         *AuthHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	Listing      *ListingHandler
	Order        *OrderHandler
	Review       *ReviewHandler
	DevToken     *DevTokenHandler
	Health       *HealthHandler
	WebSocket    *WebSocketHandler
}

type Dependencies struct {
	AuthUseCase         *usecase.AuthUseCase
	ChatUseCase         *usecase.ChatUseCase
	NotificationUseCase *usecase.NotificationUseCase
	ListingUseCase      *usecase.ListingUseCase
	OrderUseCase        *usecase.OrderUseCase
	ReviewUseCase       *usecase.ReviewUseCase
	PresenceUseCase     *usecase.PresenceUseCase
	TypingUseCase       *usecase.TypingUseCase
	Manager             *ws.Manager
	Validator           *api.CustomValidator
	AllowedOrigins      []string
	SendBuffer          int
}

func Setup(deps Dependencies) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(deps.AuthUseCase),
		Chat:         NewChatHandler(deps.ChatUseCase),
		Notification: NewNotificationHandler(deps.NotificationUseCase),
		Listing:      NewListingHandler(deps.ListingUseCase),
		Order:        NewOrderHandler(deps.OrderUseCase),
		Review:       NewReviewHandler(deps.ReviewUseCase),
		DevToken:     NewDevTokenHandler(deps.AuthUseCase),
		Health:       NewHealthHandler(deps.Manager),
		WebSocket: NewWebSocketHandler(WebSocketConfig{
			Manager:         deps.Manager,
			AuthUseCase:     deps.AuthUseCase,
			ChatUseCase:     deps.ChatUseCase,
			PresenceUseCase: deps.PresenceUseCase,
			TypingUseCase:   deps.TypingUseCase,
			Validator:       deps.Validator,
			AllowedOrigins:  deps.AllowedOrigins,
			SendBuffer:      deps.SendBuffer,
		}),
	}
}
