package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/sakya/pkg/identity"
	"github.com/cuemby/sakya/pkg/protocol"
	"github.com/cuemby/sakya/pkg/room"
	"github.com/cuemby/sakya/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *identity.Service) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idSvc := identity.New([]byte("test-secret"))
	srv := NewServer(Config{
		Identity:      idSvc,
		Rooms:         room.NewManager(nil),
		Store:         st,
		ServerVersion: "test",
		MaxFragment:   fragmentTestCeiling,
		FragmentTTL:   60,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, idSvc
}

const fragmentTestCeiling = 64 * 1024

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMagicLinkAndVerifyIssuesToken(t *testing.T) {
	ts, idSvc := newTestServer(t)

	resp, err := http.Post(ts.URL+"/auth/magic-link", "application/json",
		strings.NewReader(`{"email":"writer@example.com"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := idSvc.CreateMagicLink("writer@example.com")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{
		"token":       token,
		"device_name": "laptop",
		"public_key":  make([]byte, 32),
	})
	resp, err = http.Post(ts.URL+"/auth/verify", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verifyResp map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verifyResp))
	assert.NotEmpty(t, verifyResp["jwt"])
	assert.NotEmpty(t, verifyResp["device_id"])
}

func TestDevicesRequiresBearer(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/devices")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateDeviceWithBearer(t *testing.T) {
	ts, idSvc := newTestServer(t)
	accountID, deviceID := uuid.New(), uuid.New()
	token, err := idSvc.GenerateToken(accountID, deviceID)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"name": "phone", "public_key": make([]byte, 32)})
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/devices", strings.NewReader(string(body)))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteDeviceRemovesIt(t *testing.T) {
	ts, idSvc := newTestServer(t)
	accountID := uuid.New()
	deviceID := idSvc.RegisterDevice(accountID, "tablet", [32]byte{9})
	token, err := idSvc.GenerateToken(accountID, deviceID)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/devices/"+deviceID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := idSvc.Device(deviceID)
	assert.False(t, ok)
}

func dialSync(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sync"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func authenticate(t *testing.T, conn *websocket.Conn, idSvc *identity.Service) (uuid.UUID, uuid.UUID) {
	t.Helper()
	accountID, deviceID := uuid.New(), uuid.New()
	token, err := idSvc.GenerateToken(accountID, deviceID)
	require.NoError(t, err)

	data, err := protocol.ToJSON(protocol.Auth{Token: token})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.FromJSON(reply)
	require.NoError(t, err)
	_, ok := msg.(protocol.AuthOk)
	require.True(t, ok, "expected AuthOk, got %T", msg)

	return accountID, deviceID
}

func TestSessionRejectsUnauthenticatedFirstFrame(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dialSync(t, ts)

	data, err := protocol.ToJSON(protocol.JoinRoom{ProjectID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.FromJSON(reply)
	require.NoError(t, err)
	errMsg, ok := msg.(protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrUnauthorized, errMsg.Code)
}

func TestJoinRoomThenBroadcastReachesOtherConnection(t *testing.T) {
	ts, idSvc := newTestServer(t)
	projectID := uuid.New()

	connA := dialSync(t, ts)
	authenticate(t, connA, idSvc)
	connB := dialSync(t, ts)
	authenticate(t, connB, idSvc)

	join, _ := protocol.ToJSON(protocol.JoinRoom{ProjectID: projectID})
	for _, c := range []*websocket.Conn{connA, connB} {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, join))
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, reply, err := c.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.FromJSON(reply)
		require.NoError(t, err)
		_, ok := msg.(protocol.RoomJoined)
		require.True(t, ok)
	}

	update, _ := protocol.ToJSON(protocol.EncryptedUpdate{
		ProjectID: projectID,
		DeviceID:  uuid.New(),
		Sequence:  1,
		Envelope:  testEnvelope(),
	})
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, update))

	connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := connB.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.FromJSON(reply)
	require.NoError(t, err)
	got, ok := msg.(protocol.EncryptedUpdate)
	require.True(t, ok, "expected EncryptedUpdate, got %T", msg)
	assert.Equal(t, projectID, got.ProjectID)

	connA.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err = connA.ReadMessage()
	assert.Error(t, err, "sender must not receive its own broadcast")
}

func TestSyncRequestWithoutJoinIsRejected(t *testing.T) {
	ts, idSvc := newTestServer(t)
	conn := dialSync(t, ts)
	authenticate(t, conn, idSvc)

	req, _ := protocol.ToJSON(protocol.SyncRequest{ProjectID: uuid.New(), SinceSequence: 0})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, reply, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.FromJSON(reply)
	require.NoError(t, err)
	errMsg, ok := msg.(protocol.Error)
	require.True(t, ok)
	assert.Equal(t, protocol.ErrRoomNotFound, errMsg.Code)
}
