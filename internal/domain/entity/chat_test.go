package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatAppendUpdatesPreview(t *testing.T) {
	chat := &Chat{Participants: []string{"a", "b"}}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	chat.Append(Message{ID: "m1", SenderID: "a", Text: "Hi", CreatedAt: at})
	chat.Append(Message{ID: "m2", SenderID: "b", Text: "Hello back", CreatedAt: at.Add(time.Minute)})

	assert.Len(t, chat.Messages, 2)
	assert.Equal(t, "Hello back", chat.LastMessage)
	assert.Equal(t, at.Add(time.Minute), chat.LastMessageAt)
}

func TestChatParticipants(t *testing.T) {
	chat := &Chat{Participants: []string{"a", "b"}}

	assert.True(t, chat.HasParticipant("a"))
	assert.False(t, chat.HasParticipant("c"))
	assert.Equal(t, "b", chat.OtherParticipant("a"))
	assert.Equal(t, "a", chat.OtherParticipant("b"))
}

func TestChatMarkReadForOnlyTouchesIncoming(t *testing.T) {
	chat := &Chat{Participants: []string{"a", "b"}}
	chat.Append(Message{ID: "m1", SenderID: "a", Text: "one"})
	chat.Append(Message{ID: "m2", SenderID: "b", Text: "two"})
	chat.Append(Message{ID: "m3", SenderID: "a", Text: "three"})

	assert.Equal(t, 2, chat.UnreadFor("b"))
	assert.Equal(t, 2, chat.MarkReadFor("b"))
	assert.Equal(t, 0, chat.UnreadFor("b"))
	assert.False(t, chat.Messages[1].Read)
	assert.Equal(t, 0, chat.MarkReadFor("b"))
}

func TestChatCloneIsIndependent(t *testing.T) {
	chat := &Chat{Participants: []string{"a", "b"}}
	chat.Append(Message{ID: "m1", SenderID: "a", Text: "one"})

	cp := chat.Clone()
	cp.Append(Message{ID: "m2", SenderID: "b", Text: "two"})
	cp.Messages[0].Read = true

	assert.Len(t, chat.Messages, 1)
	assert.False(t, chat.Messages[0].Read)
}

func TestChatKeyIgnoresParticipantOrder(t *testing.T) {
	assert.Equal(t, ChatKey("alice", "bob", ""), ChatKey("bob", "alice", ""))
	assert.Equal(t, "alice_bob_l1", ChatKey("bob", "alice", "l1"))
	assert.NotEqual(t, ChatKey("alice", "bob", ""), ChatKey("alice", "bob", "l1"))
}
