// Package settings keeps the last value of every relayed setting.
//
// The relay only forwards changes; a peer that connects later has missed
// them. A Store remembers the latest value per key so new peers can be
// brought up to date before live events reach them.
//
// Available implementations:
//
//   - MemoryStore: process-local, for tests and single-process use
//   - NATSStore: a JetStream key-value bucket shared by every relay on the bus
//
// Keys follow the relay's dotted form ("display.dark_mode"). Missing keys
// are reported with a NOT_FOUND coded error.
package settings
