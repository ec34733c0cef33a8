package protocol

import (
	"encoding/json"
	"testing"

	"github.com/cuemby/sakya/pkg/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	data, err := ToJSON(m)
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)
	return got
}

func TestRoundTripAllVariants(t *testing.T) {
	projectID := uuid.New()
	deviceID := uuid.New()
	env := crypto.Envelope{Nonce: []byte("n"), Ciphertext: []byte("c"), AAD: projectID[:]}

	cases := []Message{
		Auth{Token: "tok"},
		AuthOk{ServerVersion: "1.0.0"},
		JoinRoom{ProjectID: projectID},
		RoomJoined{ProjectID: projectID, ServerVersion: "1.0.0"},
		LeaveRoom{ProjectID: projectID},
		EncryptedUpdate{ProjectID: projectID, Envelope: env, Sequence: 7, DeviceID: deviceID},
		EncryptedSnapshot{ProjectID: projectID, Envelope: env, SnapshotID: uuid.New()},
		SyncRequest{ProjectID: projectID, SinceSequence: 3},
		Ephemeral{ProjectID: projectID, Data: json.RawMessage(`{"cursor":5}`)},
		Error{Code: ErrRoomNotFound, Message: "no such room"},
		Ping{},
		Pong{},
	}

	for _, m := range cases {
		got := roundTrip(t, m)
		assert.Equal(t, m, got, "round trip for %s", m.Kind())
	}
}

func TestSyncResponseNestsSnapshotBeforeUpdates(t *testing.T) {
	projectID := uuid.New()
	snap := EncryptedSnapshot{
		ProjectID:  projectID,
		Envelope:   crypto.Envelope{Nonce: []byte("n"), Ciphertext: []byte("c"), AAD: projectID[:]},
		SnapshotID: uuid.New(),
	}
	resp := SyncResponse{
		ProjectID: projectID,
		Updates: []EncryptedUpdate{
			{ProjectID: projectID, Envelope: snap.Envelope, Sequence: 1, DeviceID: uuid.New()},
		},
		LatestSnapshot: &snap,
	}

	got := roundTrip(t, resp)
	decoded, ok := got.(SyncResponse)
	require.True(t, ok)
	require.NotNil(t, decoded.LatestSnapshot)
	assert.Equal(t, snap.SnapshotID, decoded.LatestSnapshot.SnapshotID)
	assert.Equal(t, resp, decoded)
}

func TestSyncResponseWithoutSnapshotOmitsField(t *testing.T) {
	resp := SyncResponse{ProjectID: uuid.New(), Updates: []EncryptedUpdate{}}

	data, err := ToJSON(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "latestSnapshot")
}

func TestFromJSONUnknownVariantIsTolerated(t *testing.T) {
	_, err := FromJSON([]byte(`{"type":"SomethingFromTheFuture","extra":1}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestFromJSONParseErrorOnGarbage(t *testing.T) {
	_, err := FromJSON([]byte(`not json`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestToJSONCarriesTypeField(t *testing.T) {
	data, err := ToJSON(Ping{})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "Ping", fields["type"])
}
