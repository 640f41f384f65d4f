package repository

import (
	"context"

	"foodshare/internal/domain/entity"
)

// ChatMutation edits a loaded chat in place. Returning an error aborts the write.
type ChatMutation func(chat *entity.Chat) error

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// FindByParticipantsAndListing returns the chat between a and b about listingID.
	// An empty listingID matches chats without a listing.
	FindByParticipantsAndListing(ctx context.Context, a, b, listingID string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)

	// Mutate applies fn to the current stored chat and persists the result only if
	// no other writer committed in between; on contention it reloads and retries.
	// The stored version is incremented on success.
	Mutate(ctx context.Context, id string, fn ChatMutation) (*entity.Chat, error)
}
