package crypto

import "errors"

// ErrDecryption is returned for any decryption failure: tag mismatch,
// wrong key, or truncated ciphertext. The envelope never reveals which.
var ErrDecryption = errors.New("crypto: decryption failed")

// ErrInvalidKey is returned when a key is not exactly KeySize bytes.
var ErrInvalidKey = errors.New("crypto: invalid key")
