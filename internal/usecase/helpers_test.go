package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"foodshare/internal/adapter/repository/memory"
	"foodshare/internal/domain/entity"
	"foodshare/internal/domain/repository"
)

type publishedEvent struct {
	Room    string
	Except  string
	Event   string
	Payload interface{}
	All     bool
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) BroadcastToRoom(room, event string, payload interface{}) {
	p.record(publishedEvent{Room: room, Event: event, Payload: payload})
}

func (p *recordingPublisher) BroadcastToRoomExcept(room, except, event string, payload interface{}) {
	p.record(publishedEvent{Room: room, Except: except, Event: event, Payload: payload})
}

func (p *recordingPublisher) BroadcastAll(event string, payload interface{}) {
	p.record(publishedEvent{Event: event, Payload: payload, All: true})
}

func (p *recordingPublisher) record(e publishedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

func (p *recordingPublisher) byEvent(event string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.all() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type stores struct {
	users         repository.UserRepository
	chats         repository.ChatRepository
	notifications repository.NotificationRepository
	listings      repository.ListingRepository
	orders        repository.OrderRepository
	reviews       repository.ReviewRepository
}

func newStores() stores {
	return stores{
		users:         memory.NewUserRepository(),
		chats:         memory.NewChatRepository(),
		notifications: memory.NewNotificationRepository(),
		listings:      memory.NewListingRepository(),
		orders:        memory.NewOrderRepository(),
		reviews:       memory.NewReviewRepository(),
	}
}

func seedUser(t *testing.T, repo repository.UserRepository, id, name string) *entity.User {
	t.Helper()
	u := &entity.User{ID: id, Name: name, Email: id + "@example.com"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func seedChat(t *testing.T, repo repository.ChatRepository, participants ...string) *entity.Chat {
	t.Helper()
	c := &entity.Chat{Participants: participants}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}
