package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

// HandlerFunc processes one client event. A returned error is reported back to
// the sending connection as an error event.
type HandlerFunc func(ctx context.Context, c *Client, data json.RawMessage) error

// Handle registers fn for event. It must be called before clients connect.
func (m *Manager) Handle(event string, fn HandlerFunc) {
	m.handlers[event] = fn
}

// HandleClientMessage decodes one frame and routes it to the registered handler.
func (m *Manager) HandleClientMessage(ctx context.Context, c *Client, raw []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.SendError(c, "", errors.BadRequest("Invalid message format", err))
		return
	}

	fn, ok := m.handlers[msg.Type]
	if !ok {
		m.SendError(c, msg.Type, errors.BadRequest("Unknown event type", nil))
		return
	}

	if err := fn(ctx, c, msg.Data); err != nil {
		m.SendError(c, msg.Type, err)
	}
}

// SendError reports err to c as an error event. Internal failures are logged
// and surfaced with a generic message.
func (m *Manager) SendError(c *Client, event string, err error) {
	data := ErrorData{
		Event:   event,
		Code:    errors.CodeInternal,
		Message: "Internal server error",
	}

	if appErr, ok := err.(*errors.AppError); ok && appErr.Status < http.StatusInternalServerError {
		data.Code = appErr.Code
		data.Message = appErr.Message
	} else {
		logger.Error().Err(err).
			Str("conn", c.ID).
			Str("user", c.UserID()).
			Str("event", event).
			Msg("websocket event failed")
	}

	m.SendToClient(c, EventError, data)
}
