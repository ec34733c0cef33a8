package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/cuemby/sakya/pkg/fragment"
	"github.com/cuemby/sakya/pkg/identity"
	"github.com/cuemby/sakya/pkg/log"
	"github.com/cuemby/sakya/pkg/metrics"
	"github.com/cuemby/sakya/pkg/protocol"
	"github.com/cuemby/sakya/pkg/room"
	"github.com/cuemby/sakya/pkg/store"
)

// AuthTimeout is the hard deadline for the first frame to arrive in
// AwaitingAuth (§4.G transition 1).
const AuthTimeout = 10 * time.Second

// HeartbeatInterval is how often the server pings an authenticated
// connection.
const HeartbeatInterval = 30 * time.Second

// HeartbeatGrace is the extra time allowed for a Pong before the
// connection is closed (§4.G transition 3).
const HeartbeatGrace = 10 * time.Second

// SyncReplayLimit bounds how many updates a single SyncResponse
// replays (§4.G transition 2, SyncRequest).
const SyncReplayLimit = 1000

// state is the per-connection lifecycle (§4.G).
type state int

const (
	stateAwaitingAuth state = iota
	stateAuthenticated
	stateClosed
)

// roomBroadcast fans a room.Message in from whichever project room
// produced it, tagged with the project so the session can route its
// reply.
type roomBroadcast struct {
	projectID uuid.UUID
	msg       room.Message
}

// Session drives one relay connection's state machine: authenticate,
// then join rooms and relay encrypted content until the socket closes.
// One goroutine owns the connection end to end, selecting over socket
// reads, joined-room broadcasts, and the heartbeat ticker, mirroring
// the single-task-per-connection model of the native signaling
// transport in the retrieved mesh-transport package.
type Session struct {
	conn    *websocket.Conn
	connID  string
	version string

	identity *identity.Service
	rooms    *room.Manager
	store    *store.Store
	frag     *fragment.Fragmenter
	reasm    *fragment.Reassembler

	writeMu sync.Mutex
	state   state

	accountID uuid.UUID
	deviceID  uuid.UUID
	joined    map[uuid.UUID]*room.Subscription
	broadcast chan roomBroadcast

	logger zerolog.Logger
}

// Deps are the collaborators a Session needs; the server constructs
// one set and shares it across every accepted connection.
type Deps struct {
	Identity      *identity.Service
	Rooms         *room.Manager
	Store         *store.Store
	ServerVersion string
	MaxFragment   int
	FragmentTTL   int64
}

// NewSession wraps an accepted WebSocket connection.
func NewSession(conn *websocket.Conn, deps Deps) *Session {
	connID := uuid.NewString()
	return &Session{
		conn:      conn,
		connID:    connID,
		version:   deps.ServerVersion,
		identity:  deps.Identity,
		rooms:     deps.Rooms,
		store:     deps.Store,
		frag:      fragment.New(deps.MaxFragment),
		reasm:     fragment.NewReassembler(deps.FragmentTTL),
		state:     stateAwaitingAuth,
		joined:    make(map[uuid.UUID]*room.Subscription),
		broadcast: make(chan roomBroadcast, room.DefaultBacklog),
		logger:    log.WithConnID(connID),
	}
}

// Serve runs the session to completion: authenticate, then relay until
// the socket closes or the heartbeat lapses. It always returns once
// the connection is done, never panics on a network fault (§7).
func (s *Session) Serve() {
	defer s.close()

	if !s.authenticate() {
		metrics.AuthFailuresTotal.Inc()
		return
	}
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	type frameMsg struct {
		kind protocol.Kind
		data []byte
	}
	reads := make(chan []byte, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			mt, data, err := s.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if mt != websocket.TextMessage {
				continue // binary frames reserved, accepted and ignored (§6)
			}
			reads <- data
		}
	}()

	s.conn.SetReadDeadline(time.Now().Add(HeartbeatInterval + HeartbeatGrace))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(HeartbeatInterval + HeartbeatGrace))
		return nil
	})

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	_ = frameMsg{} // frameMsg kept for readability of the select below

	for {
		select {
		case data, ok := <-reads:
			if !ok {
				return
			}
			s.handleFrame(data)
		case <-readErr:
			return
		case b := <-s.broadcast:
			s.forward(b)
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// authenticate runs the AwaitingAuth state. It returns true once the
// session has transitioned to Authenticated.
func (s *Session) authenticate() bool {
	s.conn.SetReadDeadline(time.Now().Add(AuthTimeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return false
	}

	msg, err := decodeFrame(data)
	if err != nil {
		s.sendError(protocol.ErrUnauthorized, "malformed auth frame")
		return false
	}

	auth, ok := msg.(protocol.Auth)
	if !ok {
		s.sendError(protocol.ErrUnauthorized, "first frame must be Auth")
		return false
	}

	id, err := s.identity.ValidateToken(auth.Token)
	if err != nil {
		s.sendError(protocol.ErrUnauthorized, "invalid token")
		return false
	}

	s.accountID = id.AccountID
	s.deviceID = id.DeviceID
	s.state = stateAuthenticated
	s.send(protocol.AuthOk{ServerVersion: s.version})
	return true
}

// handleFrame dispatches one decoded inbound frame, or a fragment of
// one, per the Authenticated transitions in §4.G.
func (s *Session) handleFrame(data []byte) {
	if looksLikeFragment(data) {
		var f fragment.Fragment
		if err := json.Unmarshal(data, &f); err != nil {
			return
		}
		full, err := s.reasm.Add(f)
		if err != nil {
			s.sendError(protocol.ErrInternalError, "fragment reassembly failed")
			return
		}
		if full == nil {
			return // more fragments still expected
		}
		metrics.FragmentsReassembledTotal.Inc()
		data = full
	}

	msg, err := protocol.FromJSON(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownVariant) {
			return // tolerated, not fatal (§7)
		}
		s.sendError(protocol.ErrInternalError, "could not parse frame")
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRoom:
		s.handleJoinRoom(m)
	case protocol.LeaveRoom:
		s.handleLeaveRoom(m)
	case protocol.EncryptedUpdate:
		s.handleEncryptedUpdate(m)
	case protocol.EncryptedSnapshot:
		s.handleEncryptedSnapshot(m)
	case protocol.SyncRequest:
		s.handleSyncRequest(m)
	case protocol.Ephemeral:
		s.handleEphemeral(m)
	case protocol.Ping:
		s.send(protocol.Pong{})
	default:
		// Unrecognized variants (including client-only ones like AuthOk)
		// are ignored per §4.G transition 2.
	}
}

func (s *Session) handleJoinRoom(m protocol.JoinRoom) {
	if _, already := s.joined[m.ProjectID]; !already {
		sub := s.rooms.Join(m.ProjectID, s.connID)
		s.joined[m.ProjectID] = sub
		go s.pump(m.ProjectID, sub)
	}
	s.send(protocol.RoomJoined{ProjectID: m.ProjectID, ServerVersion: s.version})
}

func (s *Session) handleLeaveRoom(m protocol.LeaveRoom) {
	if sub, ok := s.joined[m.ProjectID]; ok {
		sub.Close()
		delete(s.joined, m.ProjectID)
	}
}

func (s *Session) handleEncryptedUpdate(m protocol.EncryptedUpdate) {
	if !s.hasJoined(m.ProjectID) {
		s.sendError(protocol.ErrRoomNotFound, "not joined to project")
		return
	}
	envJSON, _ := json.Marshal(m.Envelope)
	if err := s.store.StoreUpdate(store.StoredUpdate{
		ProjectID:   m.ProjectID,
		DeviceID:    m.DeviceID,
		Sequence:    m.Sequence,
		EnvelopeRaw: envJSON,
	}); err != nil {
		s.sendError(protocol.ErrInternalError, "failed to persist update")
		return
	}
	metrics.UpdatesReceivedTotal.Inc()
	s.publish(m.ProjectID, m)
}

func (s *Session) handleEncryptedSnapshot(m protocol.EncryptedSnapshot) {
	if !s.hasJoined(m.ProjectID) {
		s.sendError(protocol.ErrRoomNotFound, "not joined to project")
		return
	}
	envJSON, _ := json.Marshal(m.Envelope)
	if err := s.store.StoreSnapshot(store.StoredSnapshot{
		ProjectID:   m.ProjectID,
		SnapshotID:  m.SnapshotID,
		EnvelopeRaw: envJSON,
	}); err != nil {
		s.sendError(protocol.ErrInternalError, "failed to persist snapshot")
		return
	}
	metrics.SnapshotsReceivedTotal.Inc()
	s.publish(m.ProjectID, m)
}

func (s *Session) handleSyncRequest(m protocol.SyncRequest) {
	if !s.hasJoined(m.ProjectID) {
		s.sendError(protocol.ErrRoomNotFound, "not joined to project")
		return
	}

	stored, err := s.store.GetUpdatesSince(m.ProjectID, m.SinceSequence, SyncReplayLimit)
	if err != nil {
		s.sendError(protocol.ErrInternalError, "failed to read update log")
		return
	}
	updates := make([]protocol.EncryptedUpdate, 0, len(stored))
	for _, u := range stored {
		var env crypto.Envelope
		if err := json.Unmarshal(u.EnvelopeRaw, &env); err != nil {
			continue
		}
		updates = append(updates, protocol.EncryptedUpdate{
			ProjectID: u.ProjectID,
			DeviceID:  u.DeviceID,
			Sequence:  u.Sequence,
			Envelope:  env,
		})
	}

	resp := protocol.SyncResponse{ProjectID: m.ProjectID, Updates: updates}
	if snap, err := s.store.GetLatestSnapshot(m.ProjectID); err == nil && snap != nil {
		var env crypto.Envelope
		if err := json.Unmarshal(snap.EnvelopeRaw, &env); err == nil {
			resp.LatestSnapshot = &protocol.EncryptedSnapshot{
				ProjectID:  snap.ProjectID,
				SnapshotID: snap.SnapshotID,
				Envelope:   env,
			}
		}
	}

	s.send(resp)
}

func (s *Session) handleEphemeral(m protocol.Ephemeral) {
	if !s.hasJoined(m.ProjectID) {
		return
	}
	s.publish(m.ProjectID, m)
}

func (s *Session) hasJoined(projectID uuid.UUID) bool {
	_, ok := s.joined[projectID]
	return ok
}

// publish broadcasts a locally-originated message to the rest of
// projectID's room, excluding this connection.
func (s *Session) publish(projectID uuid.UUID, m protocol.Message) {
	data, err := protocol.ToJSON(m)
	if err != nil {
		return
	}
	s.rooms.Broadcast(projectID, s.connID, data)
	metrics.RoomBroadcastsTotal.Inc()
}

// pump forwards everything arriving on sub into the session's single
// fan-in channel, tagged with its project, until the subscription is
// closed.
func (s *Session) pump(projectID uuid.UUID, sub *room.Subscription) {
	for msg := range sub.C {
		s.broadcast <- roomBroadcast{projectID: projectID, msg: msg}
	}
}

// forward relays a room broadcast back out over this connection
// verbatim: it is already a serialized protocol.Message.
func (s *Session) forward(b roomBroadcast) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.writeLocked(b.msg.Payload)
}

// send encodes and writes one outbound message, fragmenting it first
// if it exceeds the configured ceiling.
func (s *Session) send(m protocol.Message) {
	data, err := protocol.ToJSON(m)
	if err != nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.writeLocked(data)
}

func (s *Session) sendError(code protocol.ErrorCode, message string) {
	s.send(protocol.Error{Code: code, Message: message})
}

// writeLocked writes data as one or more text frames, splitting it
// into wire-level fragments above the fragmenter's ceiling. Callers
// must hold writeMu.
func (s *Session) writeLocked(data []byte) {
	if !s.frag.NeedsFragmentation(data) {
		s.conn.WriteMessage(websocket.TextMessage, data)
		return
	}
	for _, f := range s.frag.Fragment(data) {
		fd, err := json.Marshal(f)
		if err != nil {
			return
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, fd); err != nil {
			return
		}
		metrics.FragmentsSentTotal.Inc()
	}
}

// close releases every room subscription and best-effort records the
// device's last-seen time (§4.G transition 4).
func (s *Session) close() {
	s.state = stateClosed
	for _, sub := range s.joined {
		sub.Close()
	}
	if s.identity != nil && s.deviceID != uuid.Nil {
		s.identity.UpdateLastSeen(s.deviceID)
	}
	s.conn.Close()
	s.logger.Info().Msg("session closed")
}

// decodeFrame parses a frame that may be a tagged protocol.Message or
// a wire-level fragment of one.
func decodeFrame(data []byte) (protocol.Message, error) {
	if looksLikeFragment(data) {
		return nil, errors.New("relay: fragment cannot appear before authentication")
	}
	return protocol.FromJSON(data)
}

// looksLikeFragment distinguishes a fragment.Fragment frame from a
// tagged protocol.Message frame: fragments carry "fragmentIndex" and
// no "type" discriminator, since they exist purely to carry oversized
// message bytes across the wire in pieces (§4.D, §6).
func looksLikeFragment(data []byte) bool {
	var probe struct {
		Type           *string `json:"type"`
		FragmentIndex  *int    `json:"fragmentIndex"`
		TotalFragments *int    `json:"totalFragments"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Type == nil && probe.FragmentIndex != nil && probe.TotalFragments != nil
}

