package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
)

const maxMutateAttempts = 50

type chatRepository struct {
	mu    sync.RWMutex
	chats map[string]*entity.Chat
}

func NewChatRepository() repository.ChatRepository {
	return &chatRepository{chats: make(map[string]*entity.Chat)}
}

func (r *chatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[chat.ID]; ok {
		return errors.Conflict("Chat already exists")
	}
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.Version = 1
	r.chats[chat.ID] = chat.Clone()
	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat.Clone(), nil
}

func (r *chatRepository) FindByParticipantsAndListing(ctx context.Context, a, b, listingID string) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, chat := range r.chats {
		if chat.ListingID == listingID && chat.HasParticipant(a) && chat.HasParticipant(b) {
			return chat.Clone(), nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *chatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	r.mu.RLock()
	var chats []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (r *chatRepository) Mutate(ctx context.Context, id string, fn repository.ChatMutation) (*entity.Chat, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Internal("Chat update cancelled", err)
		}

		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		readVersion := current.Version

		if err := fn(current); err != nil {
			return nil, err
		}

		r.mu.Lock()
		stored, ok := r.chats[id]
		if !ok {
			r.mu.Unlock()
			return nil, errors.NotFound("Chat", nil)
		}
		if stored.Version != readVersion {
			r.mu.Unlock()
			continue
		}
		current.Version = readVersion + 1
		current.UpdatedAt = time.Now()
		r.chats[id] = current.Clone()
		r.mu.Unlock()

		return current, nil
	}

	return nil, errors.Conflict("Chat is being updated concurrently, try again")
}
