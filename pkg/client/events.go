package client

import (
	"sync"

	"github.com/google/uuid"
)

// StatusKind is the client engine's connection lifecycle phase (§4.J).
type StatusKind string

const (
	StatusDisconnected StatusKind = "Disconnected"
	StatusConnecting   StatusKind = "Connecting"
	StatusConnected    StatusKind = "Connected"
	StatusReconnecting StatusKind = "Reconnecting"
	StatusError        StatusKind = "Error"
)

// Status is the engine's current connection state.
type Status struct {
	Kind    StatusKind
	Attempt uint
	Message string
}

// EventKind identifies an Event variant delivered to subscribers.
type EventKind string

const (
	EventStatusChanged  EventKind = "StatusChanged"
	EventProjectJoined  EventKind = "ProjectJoined"
	EventUpdateReceived EventKind = "UpdateReceived"
	EventProjectError   EventKind = "ProjectError"
)

// Event is one notification delivered to every subscriber (§4.J
// subscribe). Only the fields relevant to Kind are populated.
type Event struct {
	Kind      EventKind
	Status    Status
	ProjectID uuid.UUID
	Plaintext []byte
	Message   string
}

// broadcaster fans events out to every live subscriber. Each
// subscriber owns a buffered channel; a slow subscriber drops events
// rather than stalling the engine. Safe for concurrent use: Subscribe
// is typically called from UI code while publish runs on the engine's
// own goroutine.
type broadcaster struct {
	mu   sync.Mutex
	subs []chan Event
}

const subscriberBacklog = 64

func (b *broadcaster) subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBacklog)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
