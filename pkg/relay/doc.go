/*
Package relay implements the server side of the sync transport (§4.G,
§6): a chi-routed HTTP surface for pairing and device management, and
a WebSocket upgrade endpoint whose connections are driven by Session,
the per-connection AwaitingAuth/Authenticated/Closed state machine.

The HTTP router follows the host/path dispatch style of the teacher's
pkg/ingress router, rebuilt on top of github.com/go-chi/chi/v5 — the
dependency the teacher's go.mod already names for this concern even
though its own router predates adopting it. The WebSocket handling
follows the mutex-guarded *websocket.Conn pattern from the retrieved
mesh-transport signaling channel, generalized from a single peer link
to many concurrently joined project rooms fanned into one connection.
*/
package relay
