package usecase

import (
	"context"
	"sync"

	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/metrics"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/logger"
)

type UserOnlineEvent struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

type userPresence struct {
	mu    sync.Mutex
	conns map[string]struct{}
	// set once the entry is removed from the registry; holders must look it up again
	dead bool
}

// PresenceUseCase tracks the open connections of each user. A user is online
// while at least one connection is open.
type PresenceUseCase struct {
	mu        sync.Mutex
	users     map[string]*userPresence
	userRepo  repository.UserRepository
	publisher Publisher
	metrics   *metrics.Metrics
}

func NewPresenceUseCase(userRepo repository.UserRepository, publisher Publisher, m *metrics.Metrics) *PresenceUseCase {
	return &PresenceUseCase{
		users:     make(map[string]*userPresence),
		userRepo:  userRepo,
		publisher: publisher,
		metrics:   m,
	}
}

// lock returns the locked registry entry for userID, creating it if needed.
func (uc *PresenceUseCase) lock(userID string) *userPresence {
	for {
		uc.mu.Lock()
		p, ok := uc.users[userID]
		if !ok {
			p = &userPresence{conns: make(map[string]struct{})}
			uc.users[userID] = p
		}
		uc.mu.Unlock()

		p.mu.Lock()
		if !p.dead {
			return p
		}
		p.mu.Unlock()
	}
}

// Connect records connID for userID. The first connection marks the user
// online and broadcasts user-online. It reports whether this was the first.
func (uc *PresenceUseCase) Connect(ctx context.Context, userID, connID string) bool {
	p := uc.lock(userID)
	defer p.mu.Unlock()

	if _, ok := p.conns[connID]; ok {
		return false
	}
	p.conns[connID] = struct{}{}
	if len(p.conns) > 1 {
		return false
	}

	uc.transition(ctx, userID, true)
	return true
}

// Disconnect forgets connID. The last connection marks the user offline and
// broadcasts user-online. It reports whether this was the last.
func (uc *PresenceUseCase) Disconnect(ctx context.Context, userID, connID string) bool {
	p := uc.lock(userID)
	defer p.mu.Unlock()

	if _, ok := p.conns[connID]; !ok {
		return false
	}
	delete(p.conns, connID)
	if len(p.conns) > 0 {
		return false
	}

	uc.transition(ctx, userID, false)

	// retire the entry only after the offline transition so a reconnect
	// waiting on it cannot overtake the broadcast
	uc.mu.Lock()
	p.dead = true
	delete(uc.users, userID)
	uc.mu.Unlock()
	return true
}

// transition runs with the user's entry locked so store writes and broadcasts
// for one user are applied in order.
func (uc *PresenceUseCase) transition(ctx context.Context, userID string, online bool) {
	if err := uc.userRepo.SetOnline(ctx, userID, online); err != nil {
		logger.Error().Err(err).Str("user", userID).Bool("online", online).Msg("failed to persist presence")
	}

	uc.publisher.BroadcastAll(ws.EventUserOnline, UserOnlineEvent{UserID: userID, Online: online})
	uc.metrics.RecordPresence(online)
}

func (uc *PresenceUseCase) IsOnline(userID string) bool {
	return uc.connectionCount(userID) > 0
}

func (uc *PresenceUseCase) connectionCount(userID string) int {
	uc.mu.Lock()
	p, ok := uc.users[userID]
	uc.mu.Unlock()
	if !ok {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
