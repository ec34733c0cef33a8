package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length in bytes of a symmetric document key.
const KeySize = chacha20poly1305.KeySize

// NonceSize is the length in bytes of an envelope nonce.
const NonceSize = chacha20poly1305.NonceSizeX

// Envelope is the triple (nonce, ciphertext, aad) that crosses the wire
// whenever encrypted project content is carried inside a sync message.
// Ciphertext includes the Poly1305 authentication tag.
type Envelope struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	AAD        []byte `json:"aad"`
}

// Encrypt seals plaintext under key, binding aad as associated data.
// A fresh random nonce is drawn for every call; key must never be
// reused with a caller-supplied nonce.
func Encrypt(key, plaintext, aad []byte) (Envelope, error) {
	if len(key) != KeySize {
		return Envelope{}, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Envelope{}, ErrInvalidKey
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, aad)

	return Envelope{
		Nonce:      nonce,
		Ciphertext: ciphertext,
		AAD:        aad,
	}, nil
}

// Decrypt opens an envelope under key, verifying the authentication tag
// and that the supplied aad matches the one bound at encryption time.
// Any failure — wrong key, tampered ciphertext, truncation, or aad
// mismatch — is reported uniformly as ErrDecryption.
func Decrypt(key []byte, env Envelope) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	if len(env.Nonce) != NonceSize {
		return nil, ErrDecryption
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, env.AAD)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
