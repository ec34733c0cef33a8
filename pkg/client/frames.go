package client

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/cuemby/sakya/pkg/fragment"
	"github.com/cuemby/sakya/pkg/log"
	"github.com/cuemby/sakya/pkg/protocol"
)

// writeMessage encodes m and writes it as one or more text frames,
// splitting it at the fragmenter's ceiling (§4.D) just as the relay
// does on its side of the same connection.
func (e *Engine) writeMessage(conn *websocket.Conn, m protocol.Message) error {
	data, err := protocol.ToJSON(m)
	if err != nil {
		return err
	}
	if !e.frag.NeedsFragmentation(data) {
		return conn.WriteMessage(websocket.TextMessage, data)
	}
	for _, f := range e.frag.Fragment(data) {
		fd, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, fd); err != nil {
			return err
		}
	}
	return nil
}

// handleFrame decodes one inbound frame, reassembling it first if it
// is a wire-level fragment, and dispatches it to the matching event.
func (e *Engine) handleFrame(data []byte) {
	if looksLikeFragment(data) {
		var f fragment.Fragment
		if err := json.Unmarshal(data, &f); err != nil {
			return
		}
		full, err := e.reasm.Add(f)
		if err != nil || full == nil {
			return
		}
		data = full
	}

	msg, err := protocol.FromJSON(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownVariant) {
			return
		}
		return
	}

	switch m := msg.(type) {
	case protocol.RoomJoined:
		e.events.publish(Event{Kind: EventProjectJoined, ProjectID: m.ProjectID})
	case protocol.EncryptedUpdate:
		e.deliverUpdate(m)
	case protocol.SyncResponse:
		if m.LatestSnapshot != nil {
			e.deliverSnapshot(*m.LatestSnapshot)
		}
		for _, u := range m.Updates {
			e.deliverUpdate(u)
		}
	case protocol.Ephemeral:
		e.events.publish(Event{Kind: EventUpdateReceived, ProjectID: m.ProjectID, Plaintext: m.Data})
	case protocol.Error:
		e.events.publish(Event{Kind: EventProjectError, Message: m.Message})
	default:
		// AuthOk, Pong, and anything this codec version added later are
		// not meaningful once the engine is past authentication.
	}
}

func (e *Engine) deliverUpdate(m protocol.EncryptedUpdate) {
	e.decryptAndDeliver(m.ProjectID, m.Envelope)
}

func (e *Engine) deliverSnapshot(m protocol.EncryptedSnapshot) {
	e.decryptAndDeliver(m.ProjectID, m.Envelope)
}

func (e *Engine) decryptAndDeliver(projectID uuid.UUID, env crypto.Envelope) {
	key, ok := e.projectKey(projectID)
	if !ok {
		return
	}
	plaintext, err := crypto.Decrypt(key[:], env)
	if err != nil {
		log.WithProjectID(projectID.String()).Warn().Err(err).Msg("decryption failed, dropping update")
		e.events.publish(Event{Kind: EventProjectError, ProjectID: projectID, Message: "decryption failed"})
		return
	}
	e.events.publish(Event{Kind: EventUpdateReceived, ProjectID: projectID, Plaintext: plaintext})
}

// looksLikeFragment distinguishes a fragment.Fragment frame from a
// tagged protocol.Message frame (mirrors the relay's own framing
// check; see pkg/relay/session.go).
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
