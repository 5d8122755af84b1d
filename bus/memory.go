package bus

import (
	"slices"
	"sync"
	"sync/atomic"
)

// MemoryBus implements MessageBus using in-memory channels.
// Useful for testing and single-process scenarios.
type MemoryBus struct {
	config  Config
	dropped atomic.Uint64

	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
}

// NewMemoryBus creates a new in-memory message bus.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	return &MemoryBus{
		config: cfg,
		subs:   make(map[string][]*subscription),
	}
}

// Publish sends data to all subscribers.
func (b *MemoryBus) Publish(subject string, data []byte) error {
	return b.PublishMsg(&Message{Subject: subject, Data: data})
}

// PublishMsg sends a message to all subscribers. Each subscriber gets its
// own copy of the header; a full subscriber buffer drops the message.
func (b *MemoryBus) PublishMsg(msg *Message) error {
	if err := ValidateSubject(msg.Subject); err != nil {
		return err
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := slices.Clone(b.subs[msg.Subject])
	b.mu.RUnlock()

	for _, sub := range subs {
		ok := sub.deliver(&Message{
			Subject: msg.Subject,
			Header:  copyHeader(msg.Header),
			Data:    msg.Data,
		})
		if !ok {
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped returns how many deliveries were discarded on full buffers.
func (b *MemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribe creates a subscription to a subject.
func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	var sub *subscription
	sub = newSubscription(b.config.BufferSize, func() error {
		b.removeSub(subject, sub)
		return nil
	})
	b.subs[subject] = append(b.subs[subject], sub)
	return sub, nil
}

// Close shuts down the bus and closes every subscription channel.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, list := range subs {
		for _, sub := range list {
			sub.close()
		}
	}
	return nil
}

// removeSub removes a subscription.
func (b *MemoryBus) removeSub(subject string, target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[subject]
	if i := slices.Index(subs, target); i >= 0 {
		b.subs[subject] = slices.Delete(subs, i, i+1)
	}
}
