/*
Package crypto provides the authenticated encryption envelope and the
device pairing payload used across the sync protocol.

Encryption is XChaCha20-Poly1305 (24-byte nonces, so callers can draw
nonces from crypto/rand without a birthday-bound collision risk even
over a device's full lifetime) with associated data binding every
ciphertext to the project it belongs to. A ciphertext encrypted for one
project fails to decrypt under another project's aad even with the
correct key.

Pairing payloads are the compact, scannable token exchanged when a
second device joins a project: a device id, an X25519 public key, and
the relay URL, serialized as "sk-pair_v1.<base64url json>" or rendered
as a QR code.
*/
package crypto
