/*
Package client provides the sync client engine (§4.J): a long-lived
connection to the relay that authenticates once, joins one room per
enabled project, and emits decrypted content as a stream of Events
rather than exposing raw socket frames to callers.

The engine mirrors the relay's own Session in pkg/relay: a single
goroutine owns the connection, selecting over socket reads, command
channel traffic, and a heartbeat ticker. Reconnection uses the same
pkg/reconnect backoff policy the relay expects clients to back off
with, and outbound edits made while disconnected are persisted through
pkg/queue so a restart or lost connection never drops an edit.

This replaces the gRPC client the package previously held: there is no
cluster API left to wrap, and the wire protocol is now WebSocket-framed
JSON (pkg/protocol) rather than Protocol Buffers.
*/
package client
