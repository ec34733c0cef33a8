package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// pairingStringPrefix marks a one-time device-introduction token.
const pairingStringPrefix = "sk-pair_v1."

// qrMinDimension is the minimum SVG viewport side, in pixels, rendered
// for a pairing QR code.
const qrMinDimension = 200

// PairingPayload is the compact, serializable token exchanged when a
// new device joins a project: who it is, how to reach it cryptographically,
// and which relay to talk to.
type PairingPayload struct {
	DeviceID  uuid.UUID `json:"deviceId"`
	PublicKey [32]byte  `json:"publicKey"`
	ServerURL string    `json:"serverUrl"`
}

// ToPairingString encodes the payload as "sk-pair_v1.<base64url json>".
func (p PairingPayload) ToPairingString() (string, error) {
	encoded, err := p.encodeBase64()
	if err != nil {
		return "", err
	}
	return pairingStringPrefix + encoded, nil
}

// FromPairingString decodes a pairing string produced by ToPairingString.
func FromPairingString(s string) (PairingPayload, error) {
	data, ok := strings.CutPrefix(s, pairingStringPrefix)
	if !ok {
		return PairingPayload{}, errors.New("crypto: pairing string missing " + pairingStringPrefix + " prefix")
	}
	if data == "" {
		return PairingPayload{}, errors.New("crypto: pairing string payload is empty")
	}

	jsonBytes, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return PairingPayload{}, errors.New("crypto: invalid base64 in pairing string: " + err.Error())
	}

	var payload PairingPayload
	if err := json.Unmarshal(jsonBytes, &payload); err != nil {
		return PairingPayload{}, errors.New("crypto: invalid JSON in pairing payload: " + err.Error())
	}
	return payload, nil
}

// ToQRSVG renders the pairing string as an SVG QR code at error
// correction level M, with at least a 200x200 viewport.
func (p PairingPayload) ToQRSVG() (string, error) {
	s, err := p.ToPairingString()
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(s, qrcode.Medium)
	if err != nil {
		return "", err
	}
	return renderSVG(qr.Bitmap(), qrMinDimension), nil
}

// renderSVG draws a module matrix (true == dark) as a minimal SVG,
// scaling modules up so neither side is smaller than minDimension.
func renderSVG(modules [][]bool, minDimension int) string {
	size := len(modules)
	scale := (minDimension + size - 1) / size
	if scale < 1 {
		scale = 1
	}
	dimension := size * scale

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		dimension, dimension, dimension, dimension)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`, dimension, dimension)
	for y, row := range modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			b.WriteString(`<rect x="` + strconv.Itoa(x*scale) + `" y="` + strconv.Itoa(y*scale) +
				`" width="` + strconv.Itoa(scale) + `" height="` + strconv.Itoa(scale) + `" fill="#000000"/>`)
		}
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func (p PairingPayload) encodeBase64() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
