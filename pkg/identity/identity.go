// Package identity implements the account/device/token contracts the
// relay depends on (§4.L): bearer-token issuance and validation,
// device registration, and the magic-link email flow. The relay only
// ever consumes these contracts; it never inspects project content,
// and nothing here grants authorization beyond "this bearer owns this
// device."
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// TokenTTL is how long a relay bearer token remains valid after
// issuance.
const TokenTTL = 30 * 24 * time.Hour

// MagicLinkTTL is the validity window of a magic-link token (§4.L,
// §8 property 7).
const MagicLinkTTL = 15 * time.Minute

// MagicLinkRateLimit is the maximum number of magic links one email
// address may request within MagicLinkRateWindow (§8 S5).
const MagicLinkRateLimit = 3

// MagicLinkRateWindow is the sliding window MagicLinkRateLimit applies
// over.
const MagicLinkRateWindow = time.Hour

// Claims are the JWT claims carried by a relay bearer token.
type Claims struct {
	AccountID uuid.UUID `json:"accountId"`
	DeviceID  uuid.UUID `json:"deviceId"`
	jwt.RegisteredClaims
}

// Identity is the account/device/token claim for a validated bearer
// token.
type Identity struct {
	AccountID uuid.UUID
	DeviceID  uuid.UUID
	Expiry    time.Time
}

// Device is a registered client device.
type Device struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	PublicKey [32]byte
	LastSeen  time.Time
}

type magicLink struct {
	email     string
	expiresAt time.Time
	used      bool
}

// Service issues and validates tokens, registers devices, and runs the
// magic-link email flow. Safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	secret     []byte
	devices    map[uuid.UUID]*Device
	magicLinks map[string]*magicLink // keyed by hex(blake2b-256(token))
	requests   map[string][]time.Time
	now        func() time.Time
}

// New creates a Service that signs tokens with secret.
func New(secret []byte) *Service {
	return &Service{
		secret:     secret,
		devices:    make(map[uuid.UUID]*Device),
		magicLinks: make(map[string]*magicLink),
		requests:   make(map[string][]time.Time),
		now:        time.Now,
	}
}

// GenerateToken issues a bearer token for (accountID, deviceID).
func (s *Service) GenerateToken(accountID, deviceID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		AccountID: accountID,
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies a bearer token, returning
// ErrUnauthorized for any parse failure, bad signature, or expiry —
// the relay's AwaitingAuth state does not distinguish these (§4.G).
func (s *Service) ValidateToken(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrUnauthorized
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	return Identity{AccountID: claims.AccountID, DeviceID: claims.DeviceID, Expiry: expiry}, nil
}

// RegisterDevice records a new device under accountID and returns its
// freshly generated id.
func (s *Service) RegisterDevice(accountID uuid.UUID, name string, publicKey [32]byte) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.devices[id] = &Device{
		ID:        id,
		AccountID: accountID,
		Name:      name,
		PublicKey: publicKey,
		LastSeen:  s.now(),
	}
	return id
}

// UpdateLastSeen records that deviceID was just seen. Unknown device
// ids are ignored: this is a best-effort bookkeeping call (§4.G
// transition 4), not an authorization check.
func (s *Service) UpdateLastSeen(deviceID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[deviceID]; ok {
		d.LastSeen = s.now()
	}
}

// Device returns the registered device for id, if any.
func (s *Service) Device(id uuid.UUID) (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// RemoveDevice deletes deviceID, provided it belongs to accountID. It
// does not revoke any bearer token already issued for that device —
// tokens carry their own expiry and the relay holds no session table
// to invalidate (§6 DELETE /devices/:id).
func (s *Service) RemoveDevice(accountID, deviceID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[deviceID]
	if !ok || d.AccountID != accountID {
		return false
	}
	delete(s.devices, deviceID)
	return true
}

// CreateMagicLink issues a one-time login token for email, subject to
// MagicLinkRateLimit requests per MagicLinkRateWindow. The returned
// string is the bearer the user clicks; only its BLAKE2b-256 hash is
// ever retained.
func (s *Service) CreateMagicLink(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-MagicLinkRateWindow)
	recent := s.requests[email][:0]
	for _, t := range s.requests[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= MagicLinkRateLimit {
		s.requests[email] = recent
		return "", ErrRateLimited
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("identity: generate magic link: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	s.magicLinks[hashToken(token)] = &magicLink{email: email, expiresAt: now.Add(MagicLinkTTL)}
	s.requests[email] = append(recent, now)

	return token, nil
}

// VerifyMagicLink resolves a magic-link token to the email it was
// issued for, consuming it in the same step: a second verify of the
// same token — concurrent or not — fails (§8 property 7).
func (s *Service) VerifyMagicLink(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.magicLinks[hashToken(token)]
	if !ok || link.used || s.now().After(link.expiresAt) {
		return "", ErrInvalidLink
	}
	link.used = true
	return link.email, nil
}

func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
