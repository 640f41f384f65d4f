package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"foodshare/pkg/errors"
)

// Client to server
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
)

// Server to client. typing and stop-typing are relayed under the same names.
const (
	EventNotification     = "notification"
	EventChatMessage      = "chat-message"
	EventChatNotification = "chat-notification"
	EventUserOnline       = "user-online"
	EventError            = "error"
	EventOrderUpdate      = "order-update"
	EventListingUpdate    = "listing-update"
	EventNewListing       = "new-listing"
)

// InboxRoom is the personal room every connection of userID is subscribed to.
func InboxRoom(userID string) string {
	return "user_" + userID
}

// ChatRoom is the room of a single conversation.
func ChatRoom(conversationID string) string {
	return "chat_" + conversationID
}

// IncomingMessage is the client to server envelope.
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WSMessage is the server to client envelope.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type ConversationRef struct {
	ConversationID string `json:"conversationId"`
}

type SendMessageData struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Text           string `json:"text" validate:"required,max=2000"`
}

type ErrorData struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseConversationID accepts {"conversationId": "..."} or a bare JSON string.
func ParseConversationID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		id = strings.TrimSpace(id)
		if id == "" {
			return "", errors.Validation("conversationId is required")
		}
		return id, nil
	}

	var ref ConversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", errors.BadRequest("Invalid payload", err)
	}
	ref.ConversationID = strings.TrimSpace(ref.ConversationID)
	if ref.ConversationID == "" {
		return "", errors.Validation("conversationId is required")
	}
	return ref.ConversationID, nil
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
