package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	ws "foodshare/internal/infrastructure/websocket"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/utils"
)

const (
	maxMessageLength = 2000
	previewLength    = 50
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	notifier    Notifier
	publisher   Publisher
	presence    PresenceReader
	rateLimiter *ratelimit.RateLimiter
	metrics     *metrics.Metrics
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	notifier Notifier,
	publisher Publisher,
	presence PresenceReader,
	rateLimiter *ratelimit.RateLimiter,
	m *metrics.Metrics,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		notifier:    notifier,
		publisher:   publisher,
		presence:    presence,
		rateLimiter: rateLimiter,
		metrics:     m,
	}
}

type SendMessageInput struct {
	ConversationID string
	Text           string
}

type StartChatInput struct {
	RecipientID string
	ListingID   string
	Message     string
}

type MessageView struct {
	ID        string             `json:"id"`
	Sender    entity.UserSummary `json:"sender"`
	Text      string             `json:"text"`
	Read      bool               `json:"read"`
	CreatedAt time.Time          `json:"createdAt"`
}

type ChatMessageEvent struct {
	ConversationID string      `json:"conversationId"`
	Message        MessageView `json:"message"`
}

type ChatNotificationEvent struct {
	ConversationID string `json:"conversationId"`
	SenderName     string `json:"senderName"`
	TextPreview    string `json:"textPreview"`
}

// ChatSummary is the list view of a conversation; messages are omitted.
type ChatSummary struct {
	ID            string                 `json:"id"`
	Participants  []entity.UserSummary   `json:"participants"`
	Listing       *entity.ListingSummary `json:"listing,omitempty"`
	LastMessage   string                 `json:"lastMessage"`
	LastMessageAt time.Time              `json:"lastMessageAt"`
	UnreadCount   int                    `json:"unreadCount"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type ChatDetail struct {
	ID            string                 `json:"id"`
	Participants  []entity.UserSummary   `json:"participants"`
	Listing       *entity.ListingSummary `json:"listing,omitempty"`
	Messages      []MessageView          `json:"messages"`
	LastMessage   string                 `json:"lastMessage"`
	LastMessageAt time.Time              `json:"lastMessageAt"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// AuthorizeJoin checks that userID may subscribe to the conversation room.
func (uc *ChatUseCase) AuthorizeJoin(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this chat", nil)
	}
	return chat, nil
}

// SendMessage appends a message, then relays chat-message to the conversation
// room and a chat-notification preview to the other participant's inbox.
func (uc *ChatUseCase) SendMessage(ctx context.Context, sender *entity.User, input SendMessageInput) (*MessageView, error) {
	if err := validateMessageText(input.Text); err != nil {
		return nil, err
	}
	if input.ConversationID == "" {
		return nil, errors.Validation("conversationId is required")
	}

	if allowed, wait := uc.rateLimiter.Allow(sender.ID, ratelimit.ActionSendMessage); !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down", wait)
	}

	chat, msg, err := uc.appendMessage(ctx, input.ConversationID, sender.ID, input.Text)
	if err != nil {
		return nil, err
	}

	view := messageView(msg, sender.Summary())
	uc.publisher.BroadcastToRoom(ws.ChatRoom(chat.ID), ws.EventChatMessage, ChatMessageEvent{
		ConversationID: chat.ID,
		Message:        view,
	})

	if recipient := chat.OtherParticipant(sender.ID); recipient != "" {
		uc.publisher.BroadcastToRoom(ws.InboxRoom(recipient), ws.EventChatNotification, ChatNotificationEvent{
			ConversationID: chat.ID,
			SenderName:     sender.Name,
			TextPreview:    utils.Truncate(input.Text, previewLength),
		})
	}

	return &view, nil
}

// StartChat reuses or creates the conversation between sender and recipient
// about an optional listing and appends the first message.
func (uc *ChatUseCase) StartChat(ctx context.Context, sender *entity.User, input StartChatInput) (*ChatDetail, error) {
	if input.RecipientID == sender.ID {
		return nil, errors.BadRequest("You cannot start a chat with yourself", nil)
	}
	if err := validateMessageText(input.Message); err != nil {
		return nil, err
	}

	recipient, err := uc.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if input.ListingID != "" {
		if _, err := uc.listingRepo.GetByID(ctx, input.ListingID); err != nil {
			return nil, err
		}
	}

	chat, err := uc.findOrCreateChat(ctx, sender.ID, recipient.ID, input.ListingID)
	if err != nil {
		return nil, err
	}

	chat, msg, err := uc.appendMessage(ctx, chat.ID, sender.ID, input.Message)
	if err != nil {
		return nil, err
	}

	_, err = uc.notifier.Notify(ctx, NotifyInput{
		RecipientID: recipient.ID,
		Kind:        entity.NotificationChat,
		Title:       "New Message",
		Message:     fmt.Sprintf("%s: %s...", sender.Name, utils.Truncate(input.Message, previewLength)),
		Link:        "/chat/" + chat.ID,
		RelatedID:   chat.ID,
	})
	if err != nil {
		logger.Error().Err(err).Str("chat", chat.ID).Msg("failed to notify chat recipient")
	}

	uc.publisher.BroadcastToRoom(ws.ChatRoom(chat.ID), ws.EventChatMessage, ChatMessageEvent{
		ConversationID: chat.ID,
		Message:        messageView(msg, sender.Summary()),
	})

	return uc.detail(ctx, chat)
}

// findOrCreateChat returns the conversation for the pair and listing. The new
// conversation is stored under its ChatKey, so when two starts race the loser's
// Create conflicts and it loads the winner's conversation instead.
func (uc *ChatUseCase) findOrCreateChat(ctx context.Context, senderID, recipientID, listingID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.FindByParticipantsAndListing(ctx, senderID, recipientID, listingID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	if allowed, wait := uc.rateLimiter.Allow(senderID, ratelimit.ActionCreateChat); !allowed {
		logger.Warn().Str("user", senderID).Dur("wait", wait).Msg("chat creation rate limited")
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another chat", wait)
	}

	chat = &entity.Chat{
		ID:           entity.ChatKey(senderID, recipientID, listingID),
		Participants: []string{senderID, recipientID},
		ListingID:    listingID,
		Messages:     []entity.Message{},
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		if !errors.Is(err, errors.CodeConflict) {
			return nil, err
		}
		return uc.chatRepo.GetByID(ctx, chat.ID)
	}
	return chat, nil
}

// ListChats returns the caller's conversations, most recently updated first.
func (uc *ChatUseCase) ListChats(ctx context.Context, userID string) ([]ChatSummary, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, chat := range chats {
		ids = append(ids, chat.Participants...)
	}
	users, err := uc.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	listings := make(map[string]*entity.ListingSummary)
	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, ChatSummary{
			ID:            chat.ID,
			Participants:  uc.participantSummaries(chat.Participants, users),
			Listing:       uc.listingSummary(ctx, chat.ListingID, listings),
			LastMessage:   chat.LastMessage,
			LastMessageAt: chat.LastMessageAt,
			UnreadCount:   chat.UnreadFor(userID),
			CreatedAt:     chat.CreatedAt,
			UpdatedAt:     chat.UpdatedAt,
		})
	}
	return summaries, nil
}

// GetChat returns the conversation and marks every message the caller did not
// send as read.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*ChatDetail, error) {
	chat, err := uc.AuthorizeJoin(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if chat.UnreadFor(userID) > 0 {
		chat, err = uc.chatRepo.Mutate(ctx, chatID, func(c *entity.Chat) error {
			if !c.HasParticipant(userID) {
				return errors.Forbidden("You are not a participant in this chat", nil)
			}
			c.MarkReadFor(userID)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return uc.detail(ctx, chat)
}

func (uc *ChatUseCase) appendMessage(ctx context.Context, chatID, senderID, text string) (*entity.Chat, entity.Message, error) {
	msg := entity.Message{
		ID:        uuid.New().String(),
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	chat, err := uc.chatRepo.Mutate(ctx, chatID, func(c *entity.Chat) error {
		if !c.HasParticipant(senderID) {
			return errors.Forbidden("You are not a participant in this chat", nil)
		}
		c.Append(msg)
		return nil
	})
	if err != nil {
		return nil, msg, err
	}

	uc.metrics.RecordMessage()
	return chat, msg, nil
}

func (uc *ChatUseCase) detail(ctx context.Context, chat *entity.Chat) (*ChatDetail, error) {
	users, err := uc.userRepo.GetByIDs(ctx, chat.Participants)
	if err != nil {
		return nil, err
	}

	messages := make([]MessageView, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		messages = append(messages, messageView(m, summaryOf(m.SenderID, users)))
	}

	return &ChatDetail{
		ID:            chat.ID,
		Participants:  uc.participantSummaries(chat.Participants, users),
		Listing:       uc.listingSummary(ctx, chat.ListingID, nil),
		Messages:      messages,
		LastMessage:   chat.LastMessage,
		LastMessageAt: chat.LastMessageAt,
		CreatedAt:     chat.CreatedAt,
		UpdatedAt:     chat.UpdatedAt,
	}, nil
}

// listingSummary expands a listing reference. Missing listings expand to nil.
func (uc *ChatUseCase) listingSummary(ctx context.Context, listingID string, cache map[string]*entity.ListingSummary) *entity.ListingSummary {
	if listingID == "" {
		return nil
	}
	if summary, ok := cache[listingID]; ok {
		return summary
	}

	var summary *entity.ListingSummary
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err == nil {
		s := listing.Summary()
		summary = &s
	}
	if cache != nil {
		cache[listingID] = summary
	}
	return summary
}

func validateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.Validation("Message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return errors.Validation(fmt.Sprintf("Message text must be at most %d characters", maxMessageLength))
	}
	return nil
}

func messageView(m entity.Message, sender entity.UserSummary) MessageView {
	return MessageView{
		ID:        m.ID,
		Sender:    sender,
		Text:      m.Text,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func summaryOf(userID string, users map[string]*entity.User) entity.UserSummary {
	if u, ok := users[userID]; ok {
		return u.Summary()
	}
	return entity.UserSummary{ID: userID}
}

// participantSummaries expands participant ids. Online comes from live
// presence when it is available and from the stored flag otherwise.
func (uc *ChatUseCase) participantSummaries(ids []string, users map[string]*entity.User) []entity.UserSummary {
	out := make([]entity.UserSummary, 0, len(ids))
	for _, id := range ids {
		summary := summaryOf(id, users)
		if uc.presence != nil {
			summary.Online = uc.presence.IsOnline(id)
		}
		out = append(out, summary)
	}
	return out
}
