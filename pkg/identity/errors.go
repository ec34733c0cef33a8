package identity

import "errors"

// ErrUnauthorized is returned for any unrecognized or expired bearer
// token; the relay never distinguishes the two to a caller (§4.L).
var ErrUnauthorized = errors.New("identity: unauthorized")

// ErrRateLimited is returned when an email has already requested its
// hourly quota of magic links.
var ErrRateLimited = errors.New("identity: rate limited: max 3 magic links per hour")

// ErrInvalidLink indicates a magic-link token that is unknown, already
// used, or past its 15-minute validity window.
var ErrInvalidLink = errors.New("identity: invalid or expired magic link")
