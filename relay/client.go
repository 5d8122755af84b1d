package relay

import (
	"context"

	"github.com/vinayprograms/recents/logging"
)

// Relay is the registration and dispatch surface a Client talks to.
// Service and Bridge implement it.
type Relay interface {
	AddCallback(cb Callback) error
	UnregisterCallback(cb Callback)
	DispatchValueChanged(ctx context.Context, ev Event) (DispatchResult, error)
}

var (
	_ Relay = (*Service)(nil)
	_ Relay = (*Bridge)(nil)
)

// Client is the caller-side handle. A Client with no relay behind it
// silently does nothing, and relay failures are logged instead of returned.
type Client struct {
	relay Relay
	log   *logging.Logger
}

// NewClient wraps r. r may be nil.
func NewClient(r Relay, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{relay: r, log: logger.WithComponent("relay-client")}
}

// AddCallback registers cb with the relay.
func (c *Client) AddCallback(cb Callback) {
	if c.relay == nil {
		return
	}
	if err := c.relay.AddCallback(cb); err != nil {
		c.log.Error("failed to add callback", map[string]interface{}{"error": err})
	}
}

// UnregisterCallback removes cb from the relay.
func (c *Client) UnregisterCallback(cb Callback) {
	if c.relay == nil {
		return
	}
	c.relay.UnregisterCallback(cb)
}

// DispatchValueChanged announces that key now holds value. It returns false
// when there is no relay or the dispatch failed.
func (c *Client) DispatchValueChanged(ctx context.Context, key, value string) bool {
	if c.relay == nil {
		return false
	}
	ev := NewEvent(key, value)
	if _, err := c.relay.DispatchValueChanged(ctx, ev); err != nil {
		c.log.Error("failed to dispatch value changed", map[string]interface{}{
			"event_id": ev.ID.String(),
			"key":      key,
			"error":    err,
		})
		return false
	}
	return true
}
