package websocket

import (
	"sync"

	"foodshare/internal/infrastructure/metrics"
	"foodshare/pkg/logger"
)

// Manager tracks open connections and their room memberships.
// Deliveries never block: a connection whose send buffer is full is dropped.
type Manager struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[string]*Client
	handlers map[string]HandlerFunc
	metrics  *metrics.Metrics
}

func NewManager(m *metrics.Metrics) *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		handlers: make(map[string]HandlerFunc),
		metrics:  m,
	}
}

// Register adds the client and subscribes it to its inbox room.
func (m *Manager) Register(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.joinLocked(InboxRoom(c.UserID()), c)
	m.mu.Unlock()

	m.metrics.ConnectionOpened()
	logger.Debug().Str("conn", c.ID).Str("user", c.UserID()).Msg("websocket client registered")
}

// Unregister removes the client from every room and closes its send channel.
// It reports whether the client was still registered.
func (m *Manager) Unregister(c *Client) bool {
	m.mu.Lock()
	if _, ok := m.clients[c.ID]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.clients, c.ID)
	for room, members := range m.rooms {
		if _, ok := members[c.ID]; ok {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(m.rooms, room)
			}
		}
	}
	close(c.send)
	m.mu.Unlock()

	m.metrics.ConnectionClosed()
	logger.Debug().Str("conn", c.ID).Str("user", c.UserID()).Msg("websocket client unregistered")
	return true
}

// Join subscribes c to room. It reports false when c was already a member.
func (m *Manager) Join(room string, c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c.ID]; !ok {
		return false
	}
	return m.joinLocked(room, c)
}

func (m *Manager) joinLocked(room string, c *Client) bool {
	members, ok := m.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		m.rooms[room] = members
	}
	if _, ok := members[c.ID]; ok {
		return false
	}
	members[c.ID] = c
	return true
}

// Leave unsubscribes c from room. It reports false when c was not a member.
func (m *Manager) Leave(room string, c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[c.ID]; !ok {
		return false
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(m.rooms, room)
	}
	return true
}

func (m *Manager) IsMember(room, clientID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.rooms[room][clientID]
	return ok
}

func (m *Manager) RoomMembers(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) BroadcastToRoom(room, event string, payload interface{}) {
	m.BroadcastToRoomExcept(room, "", event, payload)
}

// BroadcastToRoomExcept delivers to every member of room other than exceptClientID.
func (m *Manager) BroadcastToRoomExcept(room, exceptClientID, event string, payload interface{}) {
	msg, err := encode(event, payload)
	if err != nil {
		logger.Error().Err(err).Str("event", event).Msg("failed to encode websocket event")
		return
	}

	m.mu.RLock()
	members := m.rooms[room]
	sent := 0
	var slow []*Client
	for id, c := range members {
		if id == exceptClientID {
			continue
		}
		if c.enqueue(msg) {
			sent++
		} else {
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	m.metrics.RecordEvent(event, sent)
	m.dropSlow(slow)
}

func (m *Manager) BroadcastAll(event string, payload interface{}) {
	msg, err := encode(event, payload)
	if err != nil {
		logger.Error().Err(err).Str("event", event).Msg("failed to encode websocket event")
		return
	}

	m.mu.RLock()
	sent := 0
	var slow []*Client
	for _, c := range m.clients {
		if c.enqueue(msg) {
			sent++
		} else {
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	m.metrics.RecordEvent(event, sent)
	m.dropSlow(slow)
}

// SendToClient delivers to a single connection if it is still registered.
func (m *Manager) SendToClient(c *Client, event string, payload interface{}) {
	msg, err := encode(event, payload)
	if err != nil {
		logger.Error().Err(err).Str("event", event).Msg("failed to encode websocket event")
		return
	}

	m.mu.RLock()
	_, registered := m.clients[c.ID]
	ok := registered && c.enqueue(msg)
	m.mu.RUnlock()

	if ok {
		m.metrics.RecordEvent(event, 1)
	} else if registered {
		m.dropSlow([]*Client{c})
	}
}

// CloseAll unregisters every client. Each connection's write loop then sends a
// close frame, which ends its read loop and runs the owner's disconnect path.
func (m *Manager) CloseAll() int {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	closed := 0
	for _, c := range clients {
		if m.Unregister(c) {
			closed++
		}
	}
	return closed
}

func (m *Manager) dropSlow(clients []*Client) {
	for _, c := range clients {
		m.metrics.RecordDrop()
		logger.Warn().Str("conn", c.ID).Str("user", c.UserID()).Msg("send buffer full, dropping websocket client")
		m.Unregister(c)
	}
}
