package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	chat.Version = 1
	if chat.Messages == nil {
		chat.Messages = []entity.Message{}
	}

	_, err := r.client.Collection(chatsCollection).Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		return mapWriteError("Chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection(chatsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapGetError("Chat", err)
	}
	return decodeChat(doc)
}

func (r *firestoreChatRepository) FindByParticipantsAndListing(ctx context.Context, a, b, listingID string) (*entity.Chat, error) {
	chat, err := r.GetByID(ctx, entity.ChatKey(a, b, listingID))
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	// chats created before keyed ids only show up through the participants query
	// listingId is omitted when empty, so equality on it cannot be pushed into the query
	docs, err := r.client.Collection(chatsCollection).
		Where("participants", "array-contains", a).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to query chats", err)
	}

	for _, doc := range docs {
		chat, err := decodeChat(doc)
		if err != nil {
			continue
		}
		if chat.ListingID == listingID && chat.HasParticipant(b) {
			return chat, nil
		}
	}

	return nil, errors.NotFound("Chat", nil)
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	query := r.client.Collection(chatsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error().Err(err).Str("user", userID).Msg("failed to fetch chats")
		return nil, errors.Internal("Failed to fetch chats", err)
	}

	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		chat, err := decodeChat(doc)
		if err != nil {
			logger.Warn().Err(err).Str("chat", doc.Ref.ID).Msg("skipping undecodable chat")
			continue
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) Mutate(ctx context.Context, id string, fn repository.ChatMutation) (*entity.Chat, error) {
	docRef := r.client.Collection(chatsCollection).Doc(id)

	var result *entity.Chat
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return mapGetError("Chat", err)
		}

		chat, err := decodeChat(doc)
		if err != nil {
			return err
		}

		if err := fn(chat); err != nil {
			return err
		}

		chat.Version++
		chat.UpdatedAt = time.Now()
		result = chat
		return tx.Set(docRef, chat)
	}, firestore.MaxAttempts(chatTransactionAttempts))

	if err != nil {
		return nil, mapWriteError("Chat", err)
	}

	return result, nil
}

func decodeChat(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}
