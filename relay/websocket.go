package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/logging"
	"github.com/vinayprograms/recents/settings"
)

// Frame types written to websocket peers.
const (
	FrameValueChanged = "value_changed"
	FrameServiceDied  = "service_died"
)

// Frame is the JSON envelope sent to a websocket peer.
type Frame struct {
	Type  string `json:"type"`
	Event *Event `json:"event,omitempty"`
}

// WebSocketConfig holds websocket peer configuration.
type WebSocketConfig struct {
	// WriteTimeout bounds each frame write (0 = no deadline).
	WriteTimeout time.Duration

	// MaxMessageSize limits incoming message size.
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns configuration with sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// WebSocketPeer is a Callback that forwards events to a websocket
// connection. Any write failure means the peer is gone.
type WebSocketPeer struct {
	conn   *websocket.Conn
	config WebSocketConfig
	name   string

	mu     sync.Mutex
	closed bool
}

// NewWebSocketPeer wraps an established connection.
func NewWebSocketPeer(conn *websocket.Conn, cfg WebSocketConfig) *WebSocketPeer {
	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &WebSocketPeer{
		conn:   conn,
		config: cfg,
		name:   "ws:" + conn.RemoteAddr().String(),
	}
}

// NewWebSocketUpgrader creates an upgrader for accepting peers.
func NewWebSocketUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // Override in production
	}
}

// Name identifies the peer in logs.
func (p *WebSocketPeer) Name() string {
	return p.name
}

// OnValueChanged writes a value_changed frame.
func (p *WebSocketPeer) OnValueChanged(_ context.Context, ev Event) error {
	return p.write(Frame{Type: FrameValueChanged, Event: &ev})
}

// OnServiceDied writes a service_died frame and closes the connection.
func (p *WebSocketPeer) OnServiceDied(_ context.Context) error {
	err := p.write(Frame{Type: FrameServiceDied})
	p.Close()
	return err
}

// Close sends a close frame and closes the connection.
func (p *WebSocketPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return p.conn.Close()
}

func (p *WebSocketPeer) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode frame")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeLocked(data)
}

// Replay sends the current value of every stored setting. Live events
// wait until the replay is written, so they always land after it.
func (p *WebSocketPeer) Replay(ctx context.Context, store settings.Store) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		ev := Event{ID: uuid.New(), Key: e.Key, Value: e.Value, Time: e.Modified}
		data, err := json.Marshal(Frame{Type: FrameValueChanged, Event: &ev})
		if err != nil {
			return i, errors.Wrap(err, "encode frame")
		}
		if err := p.writeLocked(data); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

func (p *WebSocketPeer) writeLocked(data []byte) error {
	if p.closed {
		return errors.PeerGone("websocket peer closed", errors.WithPeer(p.name))
	}

	if p.config.WriteTimeout > 0 {
		p.conn.SetWriteDeadline(time.Now().Add(p.config.WriteTimeout))
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.PeerGone("websocket write failed",
			errors.WithCause(err), errors.WithPeer(p.name))
	}
	return nil
}

// Handler accepts websocket connections and registers each one as a peer
// of the Service until the connection ends. With a store attached, each new
// peer first receives the stored values.
type Handler struct {
	svc      *Service
	config   WebSocketConfig
	upgrader *websocket.Upgrader
	store    settings.Store
	log      *logging.Logger
}

// NewHandler creates a Handler serving svc.
func NewHandler(svc *Service, cfg WebSocketConfig) *Handler {
	return &Handler{
		svc:      svc,
		config:   cfg,
		upgrader: NewWebSocketUpgrader(),
		log:      svc.log.WithComponent("relay-ws"),
	}
}

// WithStore makes new peers start from the values in store.
func (h *Handler) WithStore(store settings.Store) *Handler {
	h.store = store
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Warn("websocket upgrade failed", map[string]interface{}{"error": err})
		return
	}

	peer := NewWebSocketPeer(conn, h.config)
	if err := h.svc.AddCallback(peer); err != nil {
		h.log.Warn("peer rejected", map[string]interface{}{"peer": peer.Name(), "error": err})
		peer.Close()
		return
	}
	defer func() {
		h.svc.UnregisterCallback(peer)
		peer.Close()
	}()

	if h.store != nil {
		if _, err := peer.Replay(r.Context(), h.store); err != nil {
			h.log.Warn("replay failed", map[string]interface{}{"peer": peer.Name(), "error": err})
			return
		}
	}

	// Peers only listen; reading surfaces the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
