package usecase

import (
	"context"

	"foodshare/internal/domain/entity"
)

// TokenVerifier resolves a bearer credential to a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// Publisher delivers events to live connections. Delivery is best effort and
// never blocks the caller.
type Publisher interface {
	BroadcastToRoom(room, event string, payload interface{})
	BroadcastToRoomExcept(room, exceptClientID, event string, payload interface{})
	BroadcastAll(event string, payload interface{})
}

type Notifier interface {
	Notify(ctx context.Context, input NotifyInput) (*entity.Notification, error)
}

// PresenceReader reports whether a user has an open connection on this process.
type PresenceReader interface {
	IsOnline(userID string) bool
}
