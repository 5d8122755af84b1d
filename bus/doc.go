// Package bus carries settings change events between processes.
//
// # Overview
//
// The MessageBus interface is a small pub/sub surface with channel-based
// subscriptions. Headers travel with each message so trace context can be
// propagated across the hop.
//
// # Available Implementations
//
//   - NATSBus: messaging over a NATS server
//   - MemoryBus: in-process delivery for tests and single-process use
//
// # Transport Loss
//
// A subscription channel is closed when the subscription ends for any
// reason: Unsubscribe, Close on the bus, or (for NATS) the connection
// closing for good. Consumers treat a closed channel as the transport
// being gone:
//
//	sub, _ := b.Subscribe("recents.settings")
//	for msg := range sub.Messages() {
//	    // handle msg
//	}
//	// transport lost
package bus
