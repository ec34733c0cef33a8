// Package client implements the sync client engine (§4.J): a
// long-lived WebSocket connection to the relay, one joined room per
// enabled project, and an event-driven surface UI code subscribes to
// instead of polling. It follows the same single-goroutine-owns-the-
// connection shape as the relay's own Session, generalized with a
// reconnect loop and a per-project offline queue.
package client

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/cuemby/sakya/pkg/fragment"
	"github.com/cuemby/sakya/pkg/protocol"
	"github.com/cuemby/sakya/pkg/queue"
	"github.com/cuemby/sakya/pkg/reconnect"
)

type projectState struct {
	key      [32]byte
	sequence uint64
	queue    *queue.Queue
}

type commandKind int

const (
	cmdEnableProject commandKind = iota
	cmdDisableProject
	cmdKickProject
	cmdSendMessage
	cmdShutdown
)

type command struct {
	kind      commandKind
	projectID uuid.UUID
	msg       protocol.Message
}

// Engine is the sync client's long-lived connection to a relay. Create
// one with Connect; all further interaction goes through its public
// methods and the event channel returned by Subscribe.
type Engine struct {
	serverURL string
	token     string
	deviceID  uuid.UUID
	queueDir  string

	mu       sync.Mutex
	status   Status
	projects map[uuid.UUID]*projectState

	events broadcaster
	cmdCh  chan command
	doneCh chan struct{}

	policy *reconnect.Policy
	frag   *fragment.Fragmenter
	reasm  *fragment.Reassembler
}

// Connect opens a sync client engine against serverURL, authenticating
// as deviceID with token. queueDir roots the per-project offline
// queues (§4.I) on disk; it is created if it does not exist. The
// engine begins connecting immediately in the background.
func Connect(serverURL, token string, deviceID uuid.UUID, queueDir string) *Engine {
	e := &Engine{
		serverURL: serverURL,
		token:     token,
		deviceID:  deviceID,
		queueDir:  queueDir,
		projects:  make(map[uuid.UUID]*projectState),
		cmdCh:     make(chan command, 32),
		doneCh:    make(chan struct{}),
		policy:    reconnect.New(reconnect.DefaultConfig()),
		frag:      fragment.New(fragment.DefaultMaxFragmentSize),
		reasm:     fragment.NewReassembler(30),
		status:    Status{Kind: StatusDisconnected},
	}
	go e.run()
	return e
}

// Status returns the engine's current connection state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe returns a channel of every event the engine emits from
// here on. Call it again for each independent listener.
func (e *Engine) Subscribe() <-chan Event {
	return e.events.subscribe()
}

// EnableProject records docKey for projectID and joins its room,
// opening (or reopening) that project's offline queue on disk.
func (e *Engine) EnableProject(projectID uuid.UUID, docKey [32]byte) error {
	q, err := queue.Open(filepath.Join(e.queueDir, projectID.String()))
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.projects[projectID] = &projectState{key: docKey, queue: q}
	e.mu.Unlock()

	return e.send(command{kind: cmdEnableProject, projectID: projectID})
}

// DisableProject leaves projectID's room and drops its recorded key.
// Queued-but-unsent entries remain on disk.
func (e *Engine) DisableProject(projectID uuid.UUID) {
	e.mu.Lock()
	delete(e.projects, projectID)
	e.mu.Unlock()

	e.send(command{kind: cmdDisableProject, projectID: projectID})
}

// SendUpdate encrypts plaintext under projectID's recorded key,
// attaches the next local sequence number, and queues it for delivery.
// It durably persists to the offline queue before returning, so a
// crash or disconnect immediately afterward cannot lose the edit.
func (e *Engine) SendUpdate(projectID uuid.UUID, plaintext []byte) error {
	e.mu.Lock()
	ps, ok := e.projects[projectID]
	if !ok {
		e.mu.Unlock()
		return ErrProjectNotEnabled
	}
	ps.sequence++
	seq := ps.sequence
	key := ps.key
	q := ps.queue
	e.mu.Unlock()

	env, err := crypto.Encrypt(key[:], plaintext, projectID[:])
	if err != nil {
		return err
	}
	envRaw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if err := q.Enqueue(queue.Entry{
		ProjectID: projectID,
		DeviceID:  e.deviceID,
		Sequence:  seq,
		Envelope:  envRaw,
	}); err != nil {
		return err
	}

	return e.send(command{kind: cmdKickProject, projectID: projectID})
}

// SendMessage is an escape hatch for frame kinds SendUpdate does not
// cover (SyncRequest, custom use). Delivery is best-effort: a message
// sent while disconnected is dropped, matching the "no ordering or
// delivery guarantee" outside the sendUpdate path (§4.J).
func (e *Engine) SendMessage(msg protocol.Message) {
	e.send(command{kind: cmdSendMessage, msg: msg})
}

// Disconnect shuts the engine down permanently and blocks until its
// goroutine has exited.
func (e *Engine) Disconnect() {
	e.send(command{kind: cmdShutdown})
	<-e.doneCh
}

// send enqueues cmd for the run loop, returning ErrShutdown instead of
// blocking forever if the engine has already exited.
func (e *Engine) send(cmd command) error {
	select {
	case e.cmdCh <- cmd:
		return nil
	case <-e.doneCh:
		return ErrShutdown
	}
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
	e.events.publish(Event{Kind: EventStatusChanged, Status: s})
}

func (e *Engine) projectKey(projectID uuid.UUID) ([32]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps, ok := e.projects[projectID]
	if !ok {
		return [32]byte{}, false
	}
	return ps.key, true
}

func (e *Engine) enabledProjectIDs() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(e.projects))
	for id := range e.projects {
		ids = append(ids, id)
	}
	return ids
}

func (e *Engine) projectQueue(projectID uuid.UUID) (*queue.Queue, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ps, ok := e.projects[projectID]
	if !ok {
		return nil, false
	}
	return ps.queue, true
}
