package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	"foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/repository/memory"
	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/auth"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
)

type testApp struct {
	e       *echo.Echo
	server  *httptest.Server
	jwt      *auth.JWTService
	manager  *websocket.Manager
	handlers *handler.Handlers

	users         repository.UserRepository
	chats         repository.ChatRepository
	notifications repository.NotificationRepository
	listings      repository.ListingRepository
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{
		jwt:           auth.NewJWTService("test-secret", time.Hour),
		users:         memory.NewUserRepository(),
		chats:         memory.NewChatRepository(),
		notifications: memory.NewNotificationRepository(),
		listings:      memory.NewListingRepository(),
	}
	orders := memory.NewOrderRepository()
	reviews := memory.NewReviewRepository()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	app.manager = websocket.NewManager(m)
	limiter := ratelimit.NewRateLimiter(nil)

	authUseCase := usecase.NewAuthUseCase(app.users, app.jwt, app.jwt)
	notificationUseCase := usecase.NewNotificationUseCase(app.notifications, app.manager, m, 50)
	presenceUseCase := usecase.NewPresenceUseCase(app.users, app.manager, m)
	chatUseCase := usecase.NewChatUseCase(app.chats, app.users, app.listings, notificationUseCase, app.manager, presenceUseCase, limiter, m)
	validator := api.NewValidator()

	app.handlers = handler.Setup(handler.Dependencies{
		AuthUseCase:         authUseCase,
		ChatUseCase:         chatUseCase,
		NotificationUseCase: notificationUseCase,
		ListingUseCase:      usecase.NewListingUseCase(app.listings, app.users, app.manager),
		OrderUseCase:        usecase.NewOrderUseCase(orders, app.listings, app.users, notificationUseCase, app.manager),
		ReviewUseCase:       usecase.NewReviewUseCase(reviews, app.users, orders, notificationUseCase),
		PresenceUseCase:     presenceUseCase,
		TypingUseCase:       usecase.NewTypingUseCase(app.manager, limiter, 200*time.Millisecond),
		Manager:             app.manager,
		Validator:           validator,
		AllowedOrigins:      []string{"http://allowed.example"},
		SendBuffer:          64,
	})

	app.e = echo.New()
	app.e.Validator = validator
	Setup(app.e, app.handlers, middleware.NewAuthMiddleware(authUseCase), limiter, Options{
		DevTokens: true,
		Gatherer:  registry,
	})

	app.server = httptest.NewServer(app.e)
	t.Cleanup(app.server.Close)

	return app
}

func (a *testApp) seedUser(t *testing.T, id, role string) *entity.User {
	t.Helper()
	u := &entity.User{ID: id, Name: "User " + id, Email: id + "@example.com", Role: role}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u
}

func (a *testApp) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.jwt.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get(echo.HeaderContentType) != "" && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}
