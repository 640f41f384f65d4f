package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/infrastructure/ratelimit"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
)

func typingSignal() TypingSignal {
	return TypingSignal{ConnectionID: "conn-a", UserID: "a", Name: "Alice", ConversationID: "c1"}
}

func TestTypingThenStopTyping(t *testing.T) {
	pub := &recordingPublisher{}
	uc := NewTypingUseCase(pub, nil, time.Minute)

	require.NoError(t, uc.Start(typingSignal()))
	uc.Stop(typingSignal())

	events := pub.all()
	require.Len(t, events, 2)

	assert.Equal(t, ws.EventTyping, events[0].Event)
	assert.Equal(t, ws.ChatRoom("c1"), events[0].Room)
	assert.Equal(t, "conn-a", events[0].Except)
	assert.Equal(t, TypingEvent{ConversationID: "c1", UserID: "a", Name: "Alice"}, events[0].Payload)

	assert.Equal(t, ws.EventStopTyping, events[1].Event)
	assert.Equal(t, "conn-a", events[1].Except)
	assert.Equal(t, StopTypingEvent{ConversationID: "c1", UserID: "a"}, events[1].Payload)

	assert.Zero(t, uc.Active())
}

func TestTypingExpires(t *testing.T) {
	pub := &recordingPublisher{}
	uc := NewTypingUseCase(pub, nil, 20*time.Millisecond)

	require.NoError(t, uc.Start(typingSignal()))

	assert.Eventually(t, func() bool {
		return len(pub.byEvent(ws.EventStopTyping)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, uc.Active())
}

func TestTypingRenewalRearmsTimer(t *testing.T) {
	pub := &recordingPublisher{}
	uc := NewTypingUseCase(pub, nil, 150*time.Millisecond)

	require.NoError(t, uc.Start(typingSignal()))
	time.Sleep(75 * time.Millisecond)
	require.NoError(t, uc.Start(typingSignal()))
	time.Sleep(100 * time.Millisecond)

	// the first timer would have fired by now
	assert.Empty(t, pub.byEvent(ws.EventStopTyping))
	assert.Equal(t, 1, uc.Active())

	assert.Eventually(t, func() bool {
		return len(pub.byEvent(ws.EventStopTyping)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestClearConnectionStopsEveryConversation(t *testing.T) {
	pub := &recordingPublisher{}
	uc := NewTypingUseCase(pub, nil, time.Minute)

	sig := typingSignal()
	require.NoError(t, uc.Start(sig))
	sig.ConversationID = "c2"
	require.NoError(t, uc.Start(sig))

	other := TypingSignal{ConnectionID: "conn-b", UserID: "b", Name: "Bob", ConversationID: "c1"}
	require.NoError(t, uc.Start(other))

	uc.ClearConnection("conn-a")

	stops := pub.byEvent(ws.EventStopTyping)
	require.Len(t, stops, 2)
	rooms := []string{stops[0].Room, stops[1].Room}
	assert.ElementsMatch(t, []string{ws.ChatRoom("c1"), ws.ChatRoom("c2")}, rooms)
	assert.Equal(t, 1, uc.Active())

	// clearing a connection with nothing active is silent
	uc.Clear("conn-a", "c1")
	assert.Len(t, pub.byEvent(ws.EventStopTyping), 2)
}

func TestTypingRateLimited(t *testing.T) {
	pub := &recordingPublisher{}
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		ratelimit.ActionTyping: {Every: time.Hour, Burst: 1},
	})
	uc := NewTypingUseCase(pub, limiter, time.Minute)

	require.NoError(t, uc.Start(typingSignal()))
	err := uc.Start(typingSignal())
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
	assert.Len(t, pub.byEvent(ws.EventTyping), 1)
}
