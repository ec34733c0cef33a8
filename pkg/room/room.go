package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBacklog is the number of messages a subscriber may lag behind
// before it starts missing them.
const DefaultBacklog = 256

// DefaultGCGrace is how long an empty room survives before Sweep
// removes it.
const DefaultGCGrace = 5 * time.Minute

// Message is one broadcast payload, tagged with the connection that
// sent it so a subscriber can exclude its own echo.
type Message struct {
	SenderConnID string
	Payload      []byte
}

// Subscription is the handle a connection holds after Join. Receive
// from C until Close.
type Subscription struct {
	C        <-chan Message
	connID   string
	projectID uuid.UUID
	manager  *Manager
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.manager.Leave(s.projectID, s.connID)
}

type room struct {
	subs      map[string]chan Message
	emptiedAt time.Time
}

// LagHandler is invoked when a subscriber's backlog overflows and
// messages were dropped for it.
type LagHandler func(projectID uuid.UUID, connID string, missed int)

// Manager owns every live room, keyed by project id.
type Manager struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*room
	backlog int
	grace   time.Duration
	onLag   LagHandler
}

// NewManager creates a room manager with the default backlog size and
// GC grace period. onLag may be nil.
func NewManager(onLag LagHandler) *Manager {
	return &Manager{
		rooms:   make(map[uuid.UUID]*room),
		backlog: DefaultBacklog,
		grace:   DefaultGCGrace,
		onLag:   onLag,
	}
}

// Join subscribes connID to projectID's room, creating it if needed.
func (m *Manager) Join(projectID uuid.UUID, connID string) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[projectID]
	if !ok {
		r = &room{subs: make(map[string]chan Message)}
		m.rooms[projectID] = r
	}
	ch := make(chan Message, m.backlog)
	r.subs[connID] = ch

	return &Subscription{C: ch, connID: connID, projectID: projectID, manager: m}
}

// Leave unsubscribes connID from projectID's room. If the room becomes
// empty it is marked eligible for GC, not removed immediately.
func (m *Manager) Leave(projectID uuid.UUID, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[projectID]
	if !ok {
		return
	}
	if ch, ok := r.subs[connID]; ok {
		delete(r.subs, connID)
		close(ch)
	}
	if len(r.subs) == 0 {
		r.emptiedAt = time.Now()
	}
}

// Broadcast publishes payload to every subscriber of projectID except
// senderConnID. Subscribers whose backlog is full are skipped and
// reported via the manager's LagHandler.
func (m *Manager) Broadcast(projectID uuid.UUID, senderConnID string, payload []byte) {
	m.mu.Lock()
	r, ok := m.rooms[projectID]
	if !ok {
		m.mu.Unlock()
		return
	}
	// Sends happen under the lock (they never block) so Leave cannot
	// close a channel between selecting it and sending on it.
	msg := Message{SenderConnID: senderConnID, Payload: payload}
	var lagged []string
	for connID, ch := range r.subs {
		if connID == senderConnID {
			continue
		}
		select {
		case ch <- msg:
		default:
			lagged = append(lagged, connID)
		}
	}
	m.mu.Unlock()

	if m.onLag != nil {
		for _, connID := range lagged {
			m.onLag(projectID, connID, 1)
		}
	}
}

// SubscriberCount returns how many connections currently hold a
// subscription to projectID.
func (m *Manager) SubscriberCount(projectID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[projectID]
	if !ok {
		return 0
	}
	return len(r.subs)
}

// Sweep removes rooms that have been empty for longer than the
// manager's GC grace period. Call it periodically from a background
// goroutine.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, r := range m.rooms {
		if len(r.subs) == 0 && !r.emptiedAt.IsZero() && now.Sub(r.emptiedAt) >= m.grace {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}

// RoomCount returns the number of rooms currently tracked, including
// empty ones awaiting GC.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
