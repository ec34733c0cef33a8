package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	k := key(0x2A)
	aad := []byte("550e8400-e29b-41d4-a716-446655440000")
	plaintext := []byte("chapter 1 CRDT update from A")

	env, err := Encrypt(k, plaintext, aad)
	require.NoError(t, err)
	assert.Len(t, env.Nonce, NonceSize)

	got, err := Decrypt(k, env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	env, err := Encrypt(key(42), []byte("secret data"), []byte("project"))
	require.NoError(t, err)

	_, err = Decrypt(key(99), env)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptWrongAADFails(t *testing.T) {
	k := key(7)
	env, err := Encrypt(k, []byte("hello"), []byte("project-a"))
	require.NoError(t, err)

	env.AAD = []byte("project-b")
	_, err = Decrypt(k, env)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	k := key(7)
	env, err := Encrypt(k, []byte("hello"), []byte("project-a"))
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xFF
	_, err = Decrypt(k, env)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestEncryptProducesFreshNoncePerCall(t *testing.T) {
	k := key(1)
	env1, err := Encrypt(k, []byte("same plaintext"), []byte("aad"))
	require.NoError(t, err)
	env2, err := Encrypt(k, []byte("same plaintext"), []byte("aad"))
	require.NoError(t, err)

	assert.NotEqual(t, env1.Nonce, env2.Nonce)
	assert.NotEqual(t, env1.Ciphertext, env2.Ciphertext)
}

func TestEncryptRejectsInvalidKeySize(t *testing.T) {
	_, err := Encrypt([]byte("too short"), []byte("x"), nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	k := key(3)
	env, err := Encrypt(k, nil, []byte("aad"))
	require.NoError(t, err)

	got, err := Decrypt(k, env)
	require.NoError(t, err)
	assert.Empty(t, got)
}
