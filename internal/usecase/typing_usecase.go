package usecase

import (
	"sync"
	"time"

	"foodshare/internal/infrastructure/ratelimit"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
)

const DefaultTypingTTL = 5 * time.Second

type TypingSignal struct {
	ConnectionID   string
	UserID         string
	Name           string
	ConversationID string
}

type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Name           string `json:"name"`
}

type StopTypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type typingKey struct {
	connID string
	chatID string
}

type typingEntry struct {
	signal TypingSignal
	timer  *time.Timer
	gen    uint64
}

// TypingUseCase relays typing signals to the other members of a conversation
// room. Each signal expires after ttl unless renewed, which emits stop-typing.
type TypingUseCase struct {
	mu        sync.Mutex
	active    map[typingKey]*typingEntry
	gen       uint64
	ttl       time.Duration
	publisher Publisher
	limiter   *ratelimit.RateLimiter
}

func NewTypingUseCase(publisher Publisher, limiter *ratelimit.RateLimiter, ttl time.Duration) *TypingUseCase {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingUseCase{
		active:    make(map[typingKey]*typingEntry),
		ttl:       ttl,
		publisher: publisher,
		limiter:   limiter,
	}
}

// Start broadcasts typing and arms or re-arms the expiry timer.
func (uc *TypingUseCase) Start(sig TypingSignal) error {
	if allowed, wait := uc.limiter.Allow(sig.UserID, ratelimit.ActionTyping); !allowed {
		return errors.TooManyRequests("Too many typing signals", wait)
	}

	key := typingKey{connID: sig.ConnectionID, chatID: sig.ConversationID}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if entry, ok := uc.active[key]; ok {
		entry.timer.Stop()
	}
	uc.gen++
	gen := uc.gen
	uc.active[key] = &typingEntry{
		signal: sig,
		gen:    gen,
		timer:  time.AfterFunc(uc.ttl, func() { uc.expire(key, gen) }),
	}

	uc.publisher.BroadcastToRoomExcept(ws.ChatRoom(sig.ConversationID), sig.ConnectionID, ws.EventTyping, TypingEvent{
		ConversationID: sig.ConversationID,
		UserID:         sig.UserID,
		Name:           sig.Name,
	})
	return nil
}

// Stop broadcasts stop-typing and disarms any pending expiry.
func (uc *TypingUseCase) Stop(sig TypingSignal) {
	key := typingKey{connID: sig.ConnectionID, chatID: sig.ConversationID}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if entry, ok := uc.active[key]; ok {
		entry.timer.Stop()
		delete(uc.active, key)
	}
	uc.broadcastStop(sig)
}

// Clear ends an active typing signal of connID in chatID, if any.
func (uc *TypingUseCase) Clear(connID, chatID string) {
	key := typingKey{connID: connID, chatID: chatID}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if entry, ok := uc.active[key]; ok {
		uc.endLocked(key, entry)
	}
}

// ClearConnection ends every active typing signal of connID.
func (uc *TypingUseCase) ClearConnection(connID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for key, entry := range uc.active {
		if key.connID == connID {
			uc.endLocked(key, entry)
		}
	}
}

func (uc *TypingUseCase) Active() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.active)
}

func (uc *TypingUseCase) expire(key typingKey, gen uint64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry, ok := uc.active[key]
	if !ok || entry.gen != gen {
		return
	}
	uc.endLocked(key, entry)
}

func (uc *TypingUseCase) endLocked(key typingKey, entry *typingEntry) {
	entry.timer.Stop()
	delete(uc.active, key)
	uc.broadcastStop(entry.signal)
}

func (uc *TypingUseCase) broadcastStop(sig TypingSignal) {
	uc.publisher.BroadcastToRoomExcept(ws.ChatRoom(sig.ConversationID), sig.ConnectionID, ws.EventStopTyping, StopTypingEvent{
		ConversationID: sig.ConversationID,
		UserID:         sig.UserID,
	})
}
