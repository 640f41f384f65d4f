package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/domain/entity"
	ws "foodshare/internal/infrastructure/websocket"
)

const eventTimeout = 2 * time.Second

type serverEvent struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

func (a *testApp) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws" + query
}

// connect dials /ws with the user's token and waits until the server has
// registered the connection.
func (a *testApp) connect(t *testing.T, userID string) *gorillaws.Conn {
	t.Helper()

	before := a.manager.ConnectionCount()
	conn, resp, err := gorillaws.DefaultDialer.Dial(a.wsURL("?token="+a.token(t, userID)), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return a.manager.ConnectionCount() > before
	}, eventTimeout, 5*time.Millisecond)
	return conn
}

func emit(t *testing.T, conn *gorillaws.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": event, "data": data}))
}

// expectEvent reads frames until one of the given type arrives.
func expectEvent(t *testing.T, conn *gorillaws.Conn, event string) serverEvent {
	t.Helper()

	deadline := time.Now().Add(eventTimeout)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var msg serverEvent
		err := conn.ReadJSON(&msg)
		require.NoError(t, err, "waiting for %s", event)
		if msg.Type == event {
			return msg
		}
	}
}

func (a *testApp) waitMembers(t *testing.T, chatID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return a.manager.RoomMembers(ws.ChatRoom(chatID)) == n
	}, eventTimeout, 5*time.Millisecond)
}

func (a *testApp) seedChat(t *testing.T, participants ...string) *entity.Chat {
	t.Helper()
	chat := &entity.Chat{Participants: participants}
	require.NoError(t, a.chats.Create(context.Background(), chat))
	return chat
}

func TestWebSocketRejectsBadCredential(t *testing.T) {
	app := newTestApp(t)

	_, resp, err := gorillaws.DefaultDialer.Dial(app.wsURL("?token=garbage"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorillaws.DefaultDialer.Dial(app.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, app.manager.ConnectionCount())
}

func TestWebSocketAcceptsBearerHeader(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+app.token(t, "alice"))
	conn, resp, err := gorillaws.DefaultDialer.Dial(app.wsURL(""), header)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	msg := expectEvent(t, conn, ws.EventUserOnline)
	assert.JSONEq(t, `{"userId":"alice","online":true}`, string(msg.Data))
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := gorillaws.DefaultDialer.Dial(app.wsURL("?token="+app.token(t, "alice")), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketPresence(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)

	bob := app.connect(t, "bob")
	expectEvent(t, bob, ws.EventUserOnline)

	alice := app.connect(t, "alice")
	msg := expectEvent(t, bob, ws.EventUserOnline)
	assert.JSONEq(t, `{"userId":"alice","online":true}`, string(msg.Data))

	user, err := app.users.GetByID(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, user.Online)

	require.NoError(t, alice.Close())

	msg = expectEvent(t, bob, ws.EventUserOnline)
	assert.JSONEq(t, `{"userId":"alice","online":false}`, string(msg.Data))

	require.Eventually(t, func() bool {
		u, err := app.users.GetByID(context.Background(), "alice")
		return err == nil && !u.Online
	}, eventTimeout, 5*time.Millisecond)
}

func TestWebSocketChatRelay(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)
	chat := app.seedChat(t, "alice", "bob")

	alice := app.connect(t, "alice")
	bob := app.connect(t, "bob")

	emit(t, alice, ws.EventJoinChat, map[string]string{"conversationId": chat.ID})
	// bare string ids are accepted too
	emit(t, bob, ws.EventJoinChat, chat.ID)
	app.waitMembers(t, chat.ID, 2)

	emit(t, alice, ws.EventSendMessage, map[string]string{"conversationId": chat.ID, "text": "Pickup at 6?"})

	var relayed struct {
		ConversationID string `json:"conversationId"`
		Message        struct {
			Text   string `json:"text"`
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
		} `json:"message"`
	}
	msg := expectEvent(t, bob, ws.EventChatMessage)
	require.NoError(t, json.Unmarshal(msg.Data, &relayed))
	assert.Equal(t, chat.ID, relayed.ConversationID)
	assert.Equal(t, "Pickup at 6?", relayed.Message.Text)
	assert.Equal(t, "alice", relayed.Message.Sender.ID)
	_, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	assert.NoError(t, err)

	var preview struct {
		ConversationID string `json:"conversationId"`
		SenderName     string `json:"senderName"`
		TextPreview    string `json:"textPreview"`
	}
	msg = expectEvent(t, bob, ws.EventChatNotification)
	require.NoError(t, json.Unmarshal(msg.Data, &preview))
	assert.Equal(t, chat.ID, preview.ConversationID)
	assert.Equal(t, "User alice", preview.SenderName)

	// the sender is in the room as well
	expectEvent(t, alice, ws.EventChatMessage)

	stored, err := app.chats.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "Pickup at 6?", stored.LastMessage)
}

func TestWebSocketRejectsNonParticipant(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)
	app.seedUser(t, "mallory", entity.RoleBuyer)
	chat := app.seedChat(t, "alice", "bob")

	mallory := app.connect(t, "mallory")

	emit(t, mallory, ws.EventJoinChat, map[string]string{"conversationId": chat.ID})
	var data ws.ErrorData
	msg := expectEvent(t, mallory, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, ws.EventJoinChat, data.Event)
	assert.Equal(t, "FORBIDDEN", data.Code)
	assert.Equal(t, 0, app.manager.RoomMembers(ws.ChatRoom(chat.ID)))

	emit(t, mallory, ws.EventSendMessage, map[string]string{"conversationId": chat.ID, "text": "hi"})
	msg = expectEvent(t, mallory, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, ws.EventSendMessage, data.Event)
	assert.Equal(t, "FORBIDDEN", data.Code)

	emit(t, mallory, ws.EventJoinChat, map[string]string{"conversationId": "missing"})
	msg = expectEvent(t, mallory, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "NOT_FOUND", data.Code)

	stored, err := app.chats.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
}

func TestWebSocketMalformedEvents(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	alice := app.connect(t, "alice")

	require.NoError(t, alice.WriteMessage(gorillaws.TextMessage, []byte("{not json")))
	var data ws.ErrorData
	msg := expectEvent(t, alice, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "BAD_REQUEST", data.Code)

	emit(t, alice, "dance", nil)
	msg = expectEvent(t, alice, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "dance", data.Event)

	emit(t, alice, ws.EventSendMessage, map[string]string{"conversationId": "c1"})
	msg = expectEvent(t, alice, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "VALIDATION_ERROR", data.Code)

	// the connection survives every failure
	assert.Equal(t, 1, app.manager.ConnectionCount())
}

func TestWebSocketTypingRelay(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)
	chat := app.seedChat(t, "alice", "bob")

	alice := app.connect(t, "alice")
	bob := app.connect(t, "bob")

	emit(t, alice, ws.EventTyping, map[string]string{"conversationId": chat.ID})
	var data ws.ErrorData
	msg := expectEvent(t, alice, ws.EventError)
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "FORBIDDEN", data.Code)

	emit(t, alice, ws.EventJoinChat, chat.ID)
	emit(t, bob, ws.EventJoinChat, chat.ID)
	app.waitMembers(t, chat.ID, 2)

	emit(t, alice, ws.EventTyping, map[string]string{"conversationId": chat.ID})
	msg = expectEvent(t, bob, ws.EventTyping)
	assert.JSONEq(t, `{"conversationId":"`+chat.ID+`","userId":"alice","name":"User alice"}`, string(msg.Data))

	emit(t, alice, ws.EventStopTyping, chat.ID)
	msg = expectEvent(t, bob, ws.EventStopTyping)
	assert.JSONEq(t, `{"conversationId":"`+chat.ID+`","userId":"alice"}`, string(msg.Data))

	// an abandoned signal expires on its own
	emit(t, alice, ws.EventTyping, chat.ID)
	expectEvent(t, bob, ws.EventTyping)
	expectEvent(t, bob, ws.EventStopTyping)
}

func TestWebSocketDisconnectClearsTyping(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)
	chat := app.seedChat(t, "alice", "bob")

	alice := app.connect(t, "alice")
	bob := app.connect(t, "bob")
	emit(t, alice, ws.EventJoinChat, chat.ID)
	emit(t, bob, ws.EventJoinChat, chat.ID)
	app.waitMembers(t, chat.ID, 2)

	emit(t, alice, ws.EventTyping, chat.ID)
	expectEvent(t, bob, ws.EventTyping)

	require.NoError(t, alice.Close())

	msg := expectEvent(t, bob, ws.EventStopTyping)
	assert.Contains(t, string(msg.Data), `"userId":"alice"`)
	app.waitMembers(t, chat.ID, 1)
}

func TestWebSocketReceivesNotifications(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)

	bob := app.connect(t, "bob")

	rec, _ := app.do(t, http.MethodPost, "/api/chat", app.token(t, "alice"), map[string]string{
		"userId":  "bob",
		"message": "Hello from REST",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var n entity.Notification
	msg := expectEvent(t, bob, ws.EventNotification)
	require.NoError(t, json.Unmarshal(msg.Data, &n))
	assert.Equal(t, "bob", n.UserID)
	assert.Equal(t, entity.NotificationChat, n.Type)
	assert.Equal(t, "New Message", n.Title)
}

func TestWebSocketShutdownWritesUsersOffline(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "alice", entity.RoleBuyer)
	app.seedUser(t, "bob", entity.RoleDonor)

	alice := app.connect(t, "alice")
	app.connect(t, "bob")
	require.Eventually(t, func() bool {
		u, err := app.users.GetByID(context.Background(), "bob")
		return err == nil && u.Online
	}, eventTimeout, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	require.NoError(t, app.handlers.WebSocket.Shutdown(ctx))

	assert.Equal(t, 0, app.manager.ConnectionCount())
	for _, id := range []string{"alice", "bob"} {
		u, err := app.users.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, u.Online, id)
	}

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(eventTimeout)))
	for {
		if _, _, err := alice.ReadMessage(); err != nil {
			break
		}
	}

	_, resp, err := gorillaws.DefaultDialer.Dial(app.wsURL("?token="+app.token(t, "alice")), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
