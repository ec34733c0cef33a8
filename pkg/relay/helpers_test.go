package relay

import "github.com/cuemby/sakya/pkg/crypto"

func testEnvelope() crypto.Envelope {
	return crypto.Envelope{
		Nonce:      make([]byte, crypto.NonceSize),
		Ciphertext: []byte("ciphertext"),
		AAD:        []byte("aad"),
	}
}
