package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/cuemby/sakya/pkg/protocol"
)

// authTimeout bounds how long the engine waits for AuthOk after
// sending Auth (§4.J step 2).
const authTimeout = 10 * time.Second

// heartbeatInterval is how often the engine pings the relay while
// connected (§4.J step 5).
const heartbeatInterval = 25 * time.Second

// run is the outer reconnect loop (§4.J "Internal loop").
func (e *Engine) run() {
	defer close(e.doneCh)

	for {
		e.setStatus(Status{Kind: StatusConnecting})

		conn, _, err := websocket.DefaultDialer.Dial(e.serverURL, nil)
		if err != nil {
			if e.backoffOrShutdown() {
				e.setStatus(Status{Kind: StatusDisconnected})
				return
			}
			continue
		}

		ok, fatal := e.authenticate(conn)
		if !ok {
			conn.Close()
			if fatal {
				e.setStatus(Status{Kind: StatusError, Message: "unauthorized"})
				return
			}
			if e.backoffOrShutdown() {
				e.setStatus(Status{Kind: StatusDisconnected})
				return
			}
			continue
		}

		e.setStatus(Status{Kind: StatusConnected})
		e.policy.Reset()
		e.rejoinEnabledProjects(conn)

		keepGoing := e.innerLoop(conn)
		conn.Close()
		if !keepGoing {
			e.setStatus(Status{Kind: StatusDisconnected})
			return
		}
	}
}

// backoffOrShutdown sleeps for the policy's next delay while still
// servicing commands (so EnableProject/SendUpdate calls made while
// disconnected are not lost), returning true if a Shutdown command
// arrived during the wait.
func (e *Engine) backoffOrShutdown() bool {
	delay := e.policy.NextDelay()
	e.setStatus(Status{Kind: StatusReconnecting, Attempt: e.policy.Attempt()})

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return false
		case cmd := <-e.cmdCh:
			if e.applyCommand(cmd, nil) {
				return true
			}
		}
	}
}

// authenticate sends Auth and waits up to authTimeout for AuthOk. The
// second return value reports whether the rejection is permanent
// (Unauthorized), in which case run must stop retrying entirely.
func (e *Engine) authenticate(conn *websocket.Conn) (ok bool, fatal bool) {
	if err := e.writeMessage(conn, protocol.Auth{Token: e.token}); err != nil {
		return false, false
	}

	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return false, false
	}

	msg, err := protocol.FromJSON(data)
	if err != nil {
		return false, false
	}

	switch m := msg.(type) {
	case protocol.AuthOk:
		return true, false
	case protocol.Error:
		return false, m.Code == protocol.ErrUnauthorized
	default:
		return false, false
	}
}

// rejoinEnabledProjects sends JoinRoom for every project currently
// recorded and kicks its offline queue so any backlog starts flushing
// immediately.
func (e *Engine) rejoinEnabledProjects(conn *websocket.Conn) {
	for _, projectID := range e.enabledProjectIDs() {
		e.writeMessage(conn, protocol.JoinRoom{ProjectID: projectID})
		e.drainProjectQueue(conn, projectID)
	}
}

// innerLoop services one live connection until it closes, a heartbeat
// write fails, or a Shutdown command arrives. The return value tells
// run whether to attempt reconnecting.
func (e *Engine) innerLoop(conn *websocket.Conn) (keepGoing bool) {
	reads := make(chan []byte, 8)
	readErr := make(chan error, 1)
	go func() {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			reads <- data
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-reads:
			e.handleFrame(data)
		case <-readErr:
			return true
		case cmd := <-e.cmdCh:
			if e.applyCommand(cmd, conn) {
				return false
			}
		case <-ticker.C:
			if err := e.writeMessage(conn, protocol.Ping{}); err != nil {
				return true
			}
		}
	}
}

// applyCommand executes one queued command. conn is nil while
// disconnected: commands that need a live socket (join/leave/send/kick)
// are no-ops in that case and rely on rejoinEnabledProjects to catch up
// on the next successful connection. It returns true if cmd was
// Shutdown.
func (e *Engine) applyCommand(cmd command, conn *websocket.Conn) bool {
	switch cmd.kind {
	case cmdShutdown:
		return true
	case cmdEnableProject:
		if conn != nil {
			e.writeMessage(conn, protocol.JoinRoom{ProjectID: cmd.projectID})
		}
	case cmdDisableProject:
		if conn != nil {
			e.writeMessage(conn, protocol.LeaveRoom{ProjectID: cmd.projectID})
		}
	case cmdKickProject:
		if conn != nil {
			e.drainProjectQueue(conn, cmd.projectID)
		}
	case cmdSendMessage:
		if conn != nil {
			e.writeMessage(conn, cmd.msg)
		}
	}
	return false
}

// drainProjectQueue flushes projectID's offline queue over conn in
// sequence order, or discards it in favor of a fresh SyncRequest once
// it has grown past queue.SnapshotThreshold (§4.I NeedsSnapshot).
func (e *Engine) drainProjectQueue(conn *websocket.Conn, projectID uuid.UUID) {
	q, ok := e.projectQueue(projectID)
	if !ok {
		return
	}

	needsSnapshot, err := q.NeedsSnapshot()
	if err != nil {
		return
	}
	if needsSnapshot {
		if err := q.Clear(); err != nil {
			return
		}
		e.writeMessage(conn, protocol.SyncRequest{ProjectID: projectID, SinceSequence: 0})
		return
	}

	entries, err := q.Drain()
	if err != nil {
		return
	}
	for _, entry := range entries {
		var env crypto.Envelope
		if err := json.Unmarshal(entry.Envelope, &env); err != nil {
			q.Remove(entry.Sequence)
			continue
		}
		msg := protocol.EncryptedUpdate{
			ProjectID: entry.ProjectID,
			DeviceID:  entry.DeviceID,
			Sequence:  entry.Sequence,
			Envelope:  env,
		}
		if err := e.writeMessage(conn, msg); err != nil {
			return // leave the rest queued; next drain retries them
		}
		q.Remove(entry.Sequence)
	}
}
