package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/infrastructure/ratelimit"
)

type Options struct {
	// DevTokens enables POST /api/dev/token.
	DevTokens bool
	Gatherer  prometheus.Gatherer
}

func Setup(e *echo.Echo, h *handler.Handlers, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter, opts Options) {
	api := e.Group("/api", middleware.RateLimit(limiter, ratelimit.ActionHTTP))

	SetupAuthRouter(api, h.Auth, authMiddleware)
	SetupChatRouter(api, h.Chat, authMiddleware)
	SetupNotificationRouter(api, h.Notification, authMiddleware)
	SetupListingRouter(api, h.Listing, authMiddleware)
	SetupOrderRouter(api, h.Order, authMiddleware)
	SetupReviewRouter(api, h.Review, authMiddleware)
	if opts.DevTokens {
		SetupDevRouter(api, h.DevToken)
	}

	SetupHealthRouter(e, h.Health, opts.Gatherer)
	SetupWebSocketRouter(e, h.WebSocket)
}
