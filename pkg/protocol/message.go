package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/google/uuid"
)

// Kind identifies a Message variant. It is carried on the wire as the
// JSON "type" field.
type Kind string

const (
	KindAuth              Kind = "Auth"
	KindAuthOk            Kind = "AuthOk"
	KindJoinRoom          Kind = "JoinRoom"
	KindRoomJoined        Kind = "RoomJoined"
	KindLeaveRoom         Kind = "LeaveRoom"
	KindEncryptedUpdate   Kind = "EncryptedUpdate"
	KindEncryptedSnapshot Kind = "EncryptedSnapshot"
	KindSyncRequest       Kind = "SyncRequest"
	KindSyncResponse      Kind = "SyncResponse"
	KindEphemeral         Kind = "Ephemeral"
	KindError             Kind = "Error"
	KindPing              Kind = "Ping"
	KindPong              Kind = "Pong"
)

// Message is implemented by every wire variant in §4.C.
type Message interface {
	Kind() Kind
}

// Auth is the client's first frame: a bearer token issued by the
// identity service.
type Auth struct {
	Token string `json:"token"`
}

func (Auth) Kind() Kind { return KindAuth }

// AuthOk confirms authentication and advertises the server version.
type AuthOk struct {
	ServerVersion string `json:"serverVersion"`
}

func (AuthOk) Kind() Kind { return KindAuthOk }

// JoinRoom requests membership in a project's broadcast room.
type JoinRoom struct {
	ProjectID uuid.UUID `json:"projectId"`
}

func (JoinRoom) Kind() Kind { return KindJoinRoom }

// RoomJoined confirms room membership.
type RoomJoined struct {
	ProjectID     uuid.UUID `json:"projectId"`
	ServerVersion string    `json:"serverVersion"`
}

func (RoomJoined) Kind() Kind { return KindRoomJoined }

// LeaveRoom releases membership in a project's broadcast room.
type LeaveRoom struct {
	ProjectID uuid.UUID `json:"projectId"`
}

func (LeaveRoom) Kind() Kind { return KindLeaveRoom }

// EncryptedUpdate carries one encrypted CRDT delta for a project,
// tagged with the sending device's per-project sequence number.
type EncryptedUpdate struct {
	ProjectID uuid.UUID       `json:"projectId"`
	Envelope  crypto.Envelope `json:"envelope"`
	Sequence  uint64          `json:"sequence"`
	DeviceID  uuid.UUID       `json:"deviceId"`
}

func (EncryptedUpdate) Kind() Kind { return KindEncryptedUpdate }

// EncryptedSnapshot carries one encrypted full-document snapshot.
type EncryptedSnapshot struct {
	ProjectID  uuid.UUID       `json:"projectId"`
	Envelope   crypto.Envelope `json:"envelope"`
	SnapshotID uuid.UUID       `json:"snapshotId"`
}

func (EncryptedSnapshot) Kind() Kind { return KindEncryptedSnapshot }

// SyncRequest asks the server to replay history since a given sequence.
type SyncRequest struct {
	ProjectID     uuid.UUID `json:"projectId"`
	SinceSequence uint64    `json:"sinceSequence"`
}

func (SyncRequest) Kind() Kind { return KindSyncRequest }

// SyncResponse answers a SyncRequest. LatestSnapshot, when present,
// must be applied by the receiver before Updates: it supersedes every
// update it was derived from.
type SyncResponse struct {
	ProjectID      uuid.UUID          `json:"projectId"`
	Updates        []EncryptedUpdate  `json:"updates"`
	LatestSnapshot *EncryptedSnapshot `json:"latestSnapshot,omitempty"`
}

func (SyncResponse) Kind() Kind { return KindSyncResponse }

// Ephemeral is an unpersisted, broadcast-only payload (presence,
// cursors) that is never stored and never replayed on resync.
type Ephemeral struct {
	ProjectID uuid.UUID       `json:"projectId"`
	Data      json.RawMessage `json:"data"`
}

func (Ephemeral) Kind() Kind { return KindEphemeral }

// Error reports a failure using the closed ErrorCode set.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (Error) Kind() Kind { return KindError }

// Ping is a liveness probe; the peer replies with Pong.
type Ping struct{}

func (Ping) Kind() Kind { return KindPing }

// Pong answers a Ping.
type Pong struct{}

func (Pong) Kind() Kind { return KindPong }

// typeTag reads only the "type" discriminator of a wire message, which
// FromJSON uses to pick the variant to decode the whole object into.
type typeTag struct {
	Type Kind `json:"type"`
}

// ToJSON encodes a Message as its tagged-union wire form.
func ToJSON(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	tagged, err := json.Marshal(m.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = tagged

	return json.Marshal(fields)
}

// FromJSON decodes a tagged-union wire message. An unrecognized "type"
// returns ErrUnknownVariant, which callers are expected to tolerate
// rather than treat as fatal (§7).
func FromJSON(data []byte) (Message, error) {
	var tag typeTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("protocol: %w: %w", ErrParse, err)
	}

	var (
		msg Message
		err error
	)

	switch tag.Type {
	case KindAuth:
		var v Auth
		err = json.Unmarshal(data, &v)
		msg = v
	case KindAuthOk:
		var v AuthOk
		err = json.Unmarshal(data, &v)
		msg = v
	case KindJoinRoom:
		var v JoinRoom
		err = json.Unmarshal(data, &v)
		msg = v
	case KindRoomJoined:
		var v RoomJoined
		err = json.Unmarshal(data, &v)
		msg = v
	case KindLeaveRoom:
		var v LeaveRoom
		err = json.Unmarshal(data, &v)
		msg = v
	case KindEncryptedUpdate:
		var v EncryptedUpdate
		err = json.Unmarshal(data, &v)
		msg = v
	case KindEncryptedSnapshot:
		var v EncryptedSnapshot
		err = json.Unmarshal(data, &v)
		msg = v
	case KindSyncRequest:
		var v SyncRequest
		err = json.Unmarshal(data, &v)
		msg = v
	case KindSyncResponse:
		var v SyncResponse
		err = json.Unmarshal(data, &v)
		msg = v
	case KindEphemeral:
		var v Ephemeral
		err = json.Unmarshal(data, &v)
		msg = v
	case KindError:
		var v Error
		err = json.Unmarshal(data, &v)
		msg = v
	case KindPing:
		msg = Ping{}
	case KindPong:
		msg = Pong{}
	default:
		return nil, fmt.Errorf("protocol: %w: %q", ErrUnknownVariant, tag.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("protocol: %w: %w", ErrParse, err)
	}
	return msg, nil
}
