/*
Package room implements the relay's per-project broadcast rooms: a
connection joins a project to receive every other connection's
messages, leaves to stop, and broadcasts publish to every current
subscriber except the sender. Each subscriber has a bounded backlog;
falling behind it past that bound reports a lag signal instead of
blocking the publisher. Rooms with no subscribers are garbage
collected after a grace period.

Adapted from the publish/subscribe broker in pkg/events, narrowed from
a single cluster-wide event bus to one independent bounded channel per
project room.
*/
package room
