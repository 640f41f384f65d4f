package websocket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"foodshare/internal/domain/entity"
	"foodshare/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is one authenticated websocket connection.
type Client struct {
	ID   string
	User *entity.User

	conn    *websocket.Conn
	send    chan []byte
	manager *Manager
}

func NewClient(manager *Manager, conn *websocket.Conn, user *entity.User, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		ID:      uuid.New().String(),
		User:    user,
		conn:    conn,
		send:    make(chan []byte, buffer),
		manager: manager,
	}
}

func (c *Client) UserID() string {
	if c.User == nil {
		return ""
	}
	return c.User.ID
}

// enqueue must be called with the manager lock held so send is not closed underneath it.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump dispatches incoming frames in order until the connection fails or ctx ends.
// It returns when the client should be torn down.
func (c *Client) ReadPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Str("conn", c.ID).Str("user", c.UserID()).Msg("websocket read error")
			}
			return
		}

		c.manager.HandleClientMessage(ctx, c, message)
	}
}

// WritePump drains the send channel and keeps the connection alive with pings.
// It closes the connection when the channel is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug().Err(err).Str("conn", c.ID).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
