package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vinayprograms/recents/logging"
)

// NATSConfig configures the connection that carries relay events between
// processes.
type NATSConfig struct {
	Config

	URL  string // e.g. "nats://localhost:4222"
	Name string // client name shown by the server

	// CredsFile is an optional NATS credentials file.
	CredsFile string

	ReconnectWait  time.Duration
	MaxReconnects  int // -1 retries forever
	ConnectTimeout time.Duration

	// Logger receives connection state changes. Nil discards them.
	Logger *logging.Logger
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Config:         DefaultConfig(),
		URL:            nats.DefaultURL,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

// NATSBus implements MessageBus over a NATS connection. Reconnects are
// transparent; once the connection is closed for good every open
// subscription channel is closed, which is how relay bridges observe
// transport loss.
type NATSBus struct {
	conn    *nats.Conn
	buffer  int
	logger  *logging.Logger
	dropped atomic.Uint64

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// NewNATSBus connects to cfg.URL.
func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	b := newNATSBus(cfg)
	conn, err := nats.Connect(cfg.URL, b.options(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	b.conn = conn
	return b, nil
}

// NewNATSBusFromConn wraps an existing connection. Its closed handler is
// replaced.
func NewNATSBusFromConn(conn *nats.Conn, cfg NATSConfig) *NATSBus {
	b := newNATSBus(cfg)
	b.conn = conn
	conn.SetClosedHandler(b.onClosed)
	return b
}

func newNATSBus(cfg NATSConfig) *NATSBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &NATSBus{
		buffer: cfg.BufferSize,
		logger: logger.WithComponent("bus"),
		subs:   make(map[*subscription]struct{}),
	}
}

func (b *NATSBus) options(cfg NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(b.onClosed),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			b.logger.Warn("nats disconnected", map[string]interface{}{"error": err})
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			b.logger.Info("nats reconnected", map[string]interface{}{"url": c.ConnectedUrl()})
		}),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}
	return opts
}

func (b *NATSBus) Publish(subject string, data []byte) error {
	return b.PublishMsg(&Message{Subject: subject, Data: data})
}

// PublishMsg sends msg with its headers mapped onto NATS headers.
func (b *NATSBus) PublishMsg(msg *Message) error {
	if err := ValidateSubject(msg.Subject); err != nil {
		return err
	}
	if b.conn.IsClosed() {
		return ErrClosed
	}
	if err := b.conn.PublishMsg(toNATS(msg)); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Subscribe delivers every message on subject. A message arriving while the
// channel buffer is full is dropped and counted.
func (b *NATSBus) Subscribe(subject string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	var ns *nats.Subscription
	sub := newSubscription(b.buffer, nil)
	sub.detach = func() error {
		b.forget(sub)
		return ns.Unsubscribe()
	}

	ns, err := b.conn.Subscribe(subject, func(m *nats.Msg) {
		if !sub.deliver(fromNATS(m)) {
			b.dropped.Add(1)
		}
	})
	if err != nil {
		sub.close()
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	// the connection may have closed while subscribing
	if b.conn.IsClosed() {
		b.onClosed(b.conn)
	}
	return sub, nil
}

// Dropped returns how many messages were discarded on full buffers.
func (b *NATSBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes the connection and every subscription.
func (b *NATSBus) Close() error {
	b.conn.Close()
	b.onClosed(b.conn)
	return nil
}

// Conn exposes the connection, e.g. for a JetStream key-value store.
func (b *NATSBus) Conn() *nats.Conn {
	return b.conn
}

func (b *NATSBus) forget(sub *subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

func (b *NATSBus) onClosed(*nats.Conn) {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*subscription]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

func toNATS(msg *Message) *nats.Msg {
	m := nats.NewMsg(msg.Subject)
	m.Data = msg.Data
	for k, v := range msg.Header {
		m.Header.Set(k, v)
	}
	return m
}

func fromNATS(m *nats.Msg) *Message {
	msg := &Message{Subject: m.Subject, Data: m.Data}
	if len(m.Header) > 0 {
		msg.Header = make(map[string]string, len(m.Header))
		for k := range m.Header {
			msg.Header[k] = m.Header.Get(k)
		}
	}
	return msg
}
