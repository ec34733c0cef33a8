package protocol

import "errors"

// ErrorCode is the closed set of codes an Error message may carry.
type ErrorCode string

const (
	ErrUnauthorized    ErrorCode = "Unauthorized"
	ErrRoomNotFound    ErrorCode = "RoomNotFound"
	ErrInvalidUpdate   ErrorCode = "InvalidUpdate"
	ErrSnapshotRequired ErrorCode = "SnapshotRequired"
	ErrRateLimited     ErrorCode = "RateLimited"
	ErrInternalError   ErrorCode = "InternalError"
)

// ErrParse indicates a frame that could not be decoded as JSON, or
// whose recognized fields did not match its declared type.
var ErrParse = errors.New("protocol: parse error")

// ErrUnknownVariant indicates a frame with a "type" this codec version
// does not recognize. Callers should ignore the frame, not close the
// connection (§4.C, §7).
var ErrUnknownVariant = errors.New("protocol: unknown variant")
