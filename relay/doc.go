// Package relay fans settings change events out to registered callbacks.
//
// A Service keeps an ordered callback list guarded by a mutex, since
// registration can race with a dispatch arriving from another goroutine.
// Dispatch never aborts on a single failure: nil entries are skipped,
// failing callbacks are logged, and callbacks whose peer is gone are pruned.
//
// When the transport feeding a Service is lost, ServiceDied broadcasts a
// terminal signal to every callback in reverse registration order and
// clears the list. A dead Service refuses further dispatches.
//
// # Transports
//
//   - Bridge publishes events to a bus subject and serves a subject into a
//     Service, calling ServiceDied when the subscription ends.
//   - WebSocketPeer is a Callback writing JSON frames to a websocket, and
//     Handler accepts websocket peers over HTTP.
//
// Client wraps any Relay and tolerates a missing one.
package relay
