/*
Package identity implements the contracts the relay depends on for
authentication (§4.L): issuing and validating bearer tokens, device
registration, last-seen bookkeeping, and the magic-link email flow.
The relay consumes only these contracts — it has no notion of
passwords, sessions, or authorization beyond "this bearer names this
device" — everything else about accounts is out of scope.

Tokens are signed JWTs (github.com/golang-jwt/jwt/v5), following the
teacher's choice of opaque random strings in pkg/manager/token.go but
replacing them with a library-verified, self-contained claim so the
relay never needs a network round trip or shared token store to
validate one. Magic-link tokens are hashed with BLAKE2b-256
(golang.org/x/crypto/blake2b) before being retained, so a leaked store
never reveals a usable link.
*/
package identity
