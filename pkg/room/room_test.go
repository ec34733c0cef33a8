package room

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastExcludesSender(t *testing.T) {
	m := NewManager(nil)
	projectID := uuid.New()

	subA := m.Join(projectID, "connA")
	subB := m.Join(projectID, "connB")

	m.Broadcast(projectID, "connA", []byte("hello"))

	select {
	case <-subA.C:
		t.Fatal("sender should not receive its own broadcast")
	default:
	}

	select {
	case msg := <-subB.C:
		assert.Equal(t, "connA", msg.SenderConnID)
		assert.Equal(t, []byte("hello"), msg.Payload)
	default:
		t.Fatal("expected message for connB")
	}
}

func TestLagHandlerFiresWhenBacklogFull(t *testing.T) {
	var lagged []string
	m := NewManager(func(projectID uuid.UUID, connID string, missed int) {
		lagged = append(lagged, connID)
	})
	m.backlog = 1
	projectID := uuid.New()
	m.Join(projectID, "slow")

	m.Broadcast(projectID, "sender", []byte("1"))
	m.Broadcast(projectID, "sender", []byte("2"))

	assert.Equal(t, []string{"slow"}, lagged)
}

func TestLeaveMarksRoomEmptyAndSweepRemovesIt(t *testing.T) {
	m := NewManager(nil)
	m.grace = time.Millisecond
	projectID := uuid.New()

	sub := m.Join(projectID, "only")
	require.Equal(t, 1, m.RoomCount())

	sub.Close()
	assert.Equal(t, 0, m.SubscriberCount(projectID))

	removed := m.Sweep(time.Now().Add(time.Hour))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, m.RoomCount())
}

func TestSweepKeepsNonEmptyRooms(t *testing.T) {
	m := NewManager(nil)
	projectID := uuid.New()
	m.Join(projectID, "still-here")

	removed := m.Sweep(time.Now().Add(time.Hour))
	assert.Equal(t, 0, removed)
}
