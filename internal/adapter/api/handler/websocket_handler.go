package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/middleware"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

type WebSocketConfig struct {
	Manager         *ws.Manager
	AuthUseCase     *usecase.AuthUseCase
	ChatUseCase     *usecase.ChatUseCase
	PresenceUseCase *usecase.PresenceUseCase
	TypingUseCase   *usecase.TypingUseCase
	Validator       *api.CustomValidator
	// An empty list or "*" accepts any origin.
	AllowedOrigins []string
	SendBuffer     int
}

// WebSocketHandler authenticates the handshake, owns the connection lifecycle
// and routes client events to the use cases.
type WebSocketHandler struct {
	manager         *ws.Manager
	authUseCase     *usecase.AuthUseCase
	chatUseCase     *usecase.ChatUseCase
	presenceUseCase *usecase.PresenceUseCase
	typingUseCase   *usecase.TypingUseCase
	validator       *api.CustomValidator
	allowedOrigins  []string
	sendBuffer      int
	upgrader        gorillaws.Upgrader

	mu       sync.Mutex
	closing  bool
	sessions sync.WaitGroup
}

func NewWebSocketHandler(cfg WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		manager:         cfg.Manager,
		authUseCase:     cfg.AuthUseCase,
		chatUseCase:     cfg.ChatUseCase,
		presenceUseCase: cfg.PresenceUseCase,
		typingUseCase:   cfg.TypingUseCase,
		validator:       cfg.Validator,
		allowedOrigins:  cfg.AllowedOrigins,
		sendBuffer:      cfg.SendBuffer,
	}
	if h.validator == nil {
		h.validator = api.NewValidator()
	}

	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	h.manager.Handle(ws.EventJoinChat, h.joinChat)
	h.manager.Handle(ws.EventLeaveChat, h.leaveChat)
	h.manager.Handle(ws.EventSendMessage, h.sendMessage)
	h.manager.Handle(ws.EventTyping, h.typing)
	h.manager.Handle(ws.EventStopTyping, h.stopTyping)

	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket serves one connection until it closes. A bad credential is
// answered with 401 before any upgrade.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.authUseCase.Authenticate(ctx, middleware.ExtractCredential(c.Request()))
	if err != nil {
		return response.Error(c, err)
	}

	if !h.beginSession() {
		return response.Error(c, errors.Unavailable("Server is shutting down"))
	}
	defer h.sessions.Done()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logger.Warn().Err(err).Str("user", user.ID).Msg("websocket upgrade failed")
		return nil
	}

	client := ws.NewClient(h.manager, conn, user, h.sendBuffer)
	h.manager.Register(client)
	if h.isClosing() {
		// registered after Shutdown's CloseAll took its snapshot
		h.manager.Unregister(client)
	}
	h.presenceUseCase.Connect(ctx, user.ID, client.ID)

	logger.Debug().Str("conn", client.ID).Str("user", user.ID).Msg("websocket connected")

	go client.WritePump()
	client.ReadPump(ctx)

	h.disconnect(context.WithoutCancel(ctx), client)
	return nil
}

func (h *WebSocketHandler) beginSession() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return false
	}
	h.sessions.Add(1)
	return true
}

func (h *WebSocketHandler) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// Shutdown refuses new connections, closes the open ones and waits until each
// has run its disconnect path, so users are written offline before exit.
func (h *WebSocketHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	closed := h.manager.CloseAll()
	logger.Info().Int("connections", closed).Msg("closing websocket connections")

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WebSocketHandler) disconnect(ctx context.Context, client *ws.Client) {
	h.typingUseCase.ClearConnection(client.ID)
	h.manager.Unregister(client)
	h.presenceUseCase.Disconnect(ctx, client.UserID(), client.ID)

	logger.Debug().Str("conn", client.ID).Str("user", client.UserID()).Msg("websocket disconnected")
}

func (h *WebSocketHandler) joinChat(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	chatID, err := ws.ParseConversationID(data)
	if err != nil {
		return err
	}

	if _, err := h.chatUseCase.AuthorizeJoin(ctx, c.UserID(), chatID); err != nil {
		return err
	}

	h.manager.Join(ws.ChatRoom(chatID), c)
	return nil
}

func (h *WebSocketHandler) leaveChat(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	chatID, err := ws.ParseConversationID(data)
	if err != nil {
		return err
	}

	h.typingUseCase.Clear(c.ID, chatID)
	h.manager.Leave(ws.ChatRoom(chatID), c)
	return nil
}

func (h *WebSocketHandler) sendMessage(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	var payload ws.SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.BadRequest("Invalid payload", err)
	}

	if err := h.validator.ValidatePayload(&payload); err != nil {
		return err
	}

	_, err := h.chatUseCase.SendMessage(ctx, c.User, usecase.SendMessageInput{
		ConversationID: payload.ConversationID,
		Text:           payload.Text,
	})
	if err != nil {
		return err
	}

	h.typingUseCase.Clear(c.ID, payload.ConversationID)
	return nil
}

func (h *WebSocketHandler) typing(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	sig, err := h.typingSignal(c, data)
	if err != nil {
		return err
	}

	return h.typingUseCase.Start(sig)
}

func (h *WebSocketHandler) stopTyping(ctx context.Context, c *ws.Client, data json.RawMessage) error {
	sig, err := h.typingSignal(c, data)
	if err != nil {
		return err
	}

	h.typingUseCase.Stop(sig)
	return nil
}

// typingSignal only accepts signals for rooms the connection has joined.
func (h *WebSocketHandler) typingSignal(c *ws.Client, data json.RawMessage) (usecase.TypingSignal, error) {
	chatID, err := ws.ParseConversationID(data)
	if err != nil {
		return usecase.TypingSignal{}, err
	}

	if !h.manager.IsMember(ws.ChatRoom(chatID), c.ID) {
		return usecase.TypingSignal{}, errors.Forbidden("Join the chat before sending typing signals", nil)
	}

	return usecase.TypingSignal{
		ConnectionID:   c.ID,
		UserID:         c.UserID(),
		Name:           c.User.Name,
		ConversationID: chatID,
	}, nil
}
