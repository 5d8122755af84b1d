package bus

import (
	"errors"
	"sync"
)

// Common errors.
var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Message represents a message received from the bus.
type Message struct {
	// Subject the message was published to.
	Subject string

	// Header carries metadata such as trace context. May be nil.
	Header map[string]string

	// Data is the message payload.
	Data []byte
}

// MessageBus provides pub/sub messaging.
type MessageBus interface {
	// Publish sends data to all subscribers of a subject.
	Publish(subject string, data []byte) error

	// PublishMsg sends a message with its headers.
	PublishMsg(msg *Message) error

	// Subscribe creates a subscription to a subject.
	// All subscribers receive all messages.
	Subscribe(subject string) (Subscription, error)

	// Close shuts down the bus and ends every subscription.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// Messages returns the channel for incoming messages.
	// Channel is closed when subscription ends.
	Messages() <-chan *Message

	// Unsubscribe cancels the subscription.
	Unsubscribe() error
}

// Config holds common bus configuration.
type Config struct {
	// BufferSize for subscription channels.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// ValidateSubject checks if a subject is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	return nil
}

// subscription is the channel side shared by the implementations. Delivery
// and close are serialized so a late delivery never hits a closed channel.
type subscription struct {
	mu     sync.Mutex
	ch     chan *Message
	closed bool

	// detach removes the subscription from its bus.
	detach func() error
}

func newSubscription(size int, detach func() error) *subscription {
	return &subscription{
		ch:     make(chan *Message, size),
		detach: detach,
	}
}

// deliver queues msg without blocking. It reports false when the
// subscription is closed or its buffer is full.
func (s *subscription) deliver(msg *Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// close closes the channel once and reports whether this call did it.
func (s *subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	return true
}

func (s *subscription) Messages() <-chan *Message {
	return s.ch
}

func (s *subscription) Unsubscribe() error {
	if !s.close() {
		return nil
	}
	if s.detach != nil {
		return s.detach()
	}
	return nil
}

func copyHeader(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
