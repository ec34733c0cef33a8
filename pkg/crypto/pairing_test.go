package crypto

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) PairingPayload {
	t.Helper()
	id, err := uuid.Parse("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)

	var pub [32]byte
	for i := range pub {
		pub[i] = 42
	}

	return PairingPayload{
		DeviceID:  id,
		PublicKey: pub,
		ServerURL: "https://relay.sakya.io:8443/v1?token=a+b",
	}
}

func TestPairingStringRoundTrip(t *testing.T) {
	original := samplePayload(t)

	s, err := original.ToPairingString()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "sk-pair_v1."))

	decoded, err := FromPairingString(s)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestFromPairingStringRejectsMissingPrefix(t *testing.T) {
	_, err := FromPairingString("not-a-pairing-string")
	assert.Error(t, err)
}

func TestFromPairingStringRejectsEmptyPayload(t *testing.T) {
	_, err := FromPairingString("sk-pair_v1.")
	assert.Error(t, err)
}

func TestFromPairingStringRejectsMalformedBase64(t *testing.T) {
	_, err := FromPairingString("sk-pair_v1.not-valid-base64!!!")
	assert.Error(t, err)
}

func TestFromPairingStringRejectsMalformedJSON(t *testing.T) {
	// "not json" base64url-encoded, no padding.
	_, err := FromPairingString("sk-pair_v1.bm90IGpzb24")
	assert.Error(t, err)
}

func TestToQRSVGProducesValidSVG(t *testing.T) {
	payload := samplePayload(t)

	svg, err := payload.ToQRSVG()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "viewBox")
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
}
