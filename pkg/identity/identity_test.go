package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return New([]byte("test-secret"))
}

func TestGenerateThenValidateRoundTrips(t *testing.T) {
	s := newTestService()
	accountID, deviceID := uuid.New(), uuid.New()

	token, err := s.GenerateToken(accountID, deviceID)
	require.NoError(t, err)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, id.AccountID)
	assert.Equal(t, deviceID, id.DeviceID)
}

func TestValidateRejectsGarbage(t *testing.T) {
	s := newTestService()
	_, err := s.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	s1 := New([]byte("secret-one"))
	s2 := New([]byte("secret-two"))

	token, err := s1.GenerateToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = s2.ValidateToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	s := newTestService()
	start := time.Now()
	s.now = func() time.Time { return start }

	token, err := s.GenerateToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(TokenTTL + time.Minute) }
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterDeviceAndUpdateLastSeen(t *testing.T) {
	s := newTestService()
	accountID := uuid.New()
	deviceID := s.RegisterDevice(accountID, "laptop", [32]byte{1, 2, 3})

	d, ok := s.Device(deviceID)
	require.True(t, ok)
	assert.Equal(t, accountID, d.AccountID)
	assert.Equal(t, "laptop", d.Name)

	before := d.LastSeen
	s.now = func() time.Time { return before.Add(time.Hour) }
	s.UpdateLastSeen(deviceID)

	d, _ = s.Device(deviceID)
	assert.True(t, d.LastSeen.After(before))
}

func TestRemoveDeviceRequiresMatchingAccount(t *testing.T) {
	s := newTestService()
	accountID := uuid.New()
	deviceID := s.RegisterDevice(accountID, "laptop", [32]byte{1, 2, 3})

	assert.False(t, s.RemoveDevice(uuid.New(), deviceID))
	_, ok := s.Device(deviceID)
	assert.True(t, ok)

	assert.True(t, s.RemoveDevice(accountID, deviceID))
	_, ok = s.Device(deviceID)
	assert.False(t, ok)
}

func TestUpdateLastSeenUnknownDeviceIsNoOp(t *testing.T) {
	s := newTestService()
	assert.NotPanics(t, func() { s.UpdateLastSeen(uuid.New()) })
}

func TestMagicLinkRateLimitAllowsThreeThenFails(t *testing.T) {
	s := newTestService()
	email := "x@example.com"

	for i := 0; i < MagicLinkRateLimit; i++ {
		_, err := s.CreateMagicLink(email)
		require.NoError(t, err)
	}

	_, err := s.CreateMagicLink(email)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "max 3")
}

func TestMagicLinkVerifyOnceThenFails(t *testing.T) {
	s := newTestService()
	token, err := s.CreateMagicLink("x@example.com")
	require.NoError(t, err)

	email, err := s.VerifyMagicLink(token)
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", email)

	_, err = s.VerifyMagicLink(token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestMagicLinkExpiresAfter15Minutes(t *testing.T) {
	s := newTestService()
	start := time.Now()
	s.now = func() time.Time { return start }

	token, err := s.CreateMagicLink("x@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(MagicLinkTTL + time.Second) }
	_, err = s.VerifyMagicLink(token)
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestMagicLinkRateLimitWindowSlides(t *testing.T) {
	s := newTestService()
	email := "x@example.com"
	start := time.Now()
	s.now = func() time.Time { return start }

	for i := 0; i < MagicLinkRateLimit; i++ {
		_, err := s.CreateMagicLink(email)
		require.NoError(t, err)
	}

	s.now = func() time.Time { return start.Add(MagicLinkRateWindow + time.Minute) }
	_, err := s.CreateMagicLink(email)
	assert.NoError(t, err)
}
