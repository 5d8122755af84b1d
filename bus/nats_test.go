package bus

import (
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

// natsURL returns a reachable server URL or skips.
func natsURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping NATS test in short mode")
	}
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Timeout(2*time.Second), nats.MaxReconnects(0))
	if err != nil {
		t.Skipf("skipping: NATS not available at %s: %v", url, err)
	}
	conn.Close()
	return url
}

func newTestNATSBus(t *testing.T, buffer int) *NATSBus {
	t.Helper()
	cfg := DefaultNATSConfig()
	cfg.URL = natsURL(t)
	cfg.BufferSize = buffer
	b, err := NewNATSBus(cfg)
	if err != nil {
		t.Fatalf("NewNATSBus: %v", err)
	}
	return b
}

func receive(t *testing.T, sub Subscription) *Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		if !ok {
			t.Fatal("subscription closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
	return nil
}

func waitClosed(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case _, ok := <-sub.Messages():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for channel close")
	}
}

func TestHeaderMapping(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
	}{
		{"none", nil},
		{"traceparent", map[string]string{"Traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"}},
		{"several", map[string]string{"Traceparent": "x", "Recents-Origin": "switcher"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Message{Subject: "recents.settings", Header: tt.header, Data: []byte(`{"key":"k"}`)}
			out := fromNATS(toNATS(in))
			if out.Subject != in.Subject || string(out.Data) != string(in.Data) {
				t.Errorf("got %+v", out)
			}
			if len(out.Header) != len(tt.header) {
				t.Fatalf("header = %v, want %v", out.Header, tt.header)
			}
			for k, v := range tt.header {
				if out.Header[k] != v {
					t.Errorf("header[%s] = %q, want %q", k, out.Header[k], v)
				}
			}
		})
	}
}

func TestNATSBus_PublishSubscribe(t *testing.T) {
	b := newTestNATSBus(t, 0)
	defer b.Close()

	sub, err := b.Subscribe("recents.test.pubsub")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	msg := &Message{
		Subject: "recents.test.pubsub",
		Header:  map[string]string{"Traceparent": "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"},
		Data:    []byte("lock_to_app=1"),
	}
	if err := b.PublishMsg(msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}
	got := receive(t, sub)
	if string(got.Data) != "lock_to_app=1" || got.Header["Traceparent"] != msg.Header["Traceparent"] {
		t.Errorf("got %+v", got)
	}
}

func TestNATSBus_CloseEndsSubscriptions(t *testing.T) {
	tests := []struct {
		name  string
		close func(b *NATSBus)
	}{
		{"bus_close", func(b *NATSBus) { b.Close() }},
		// a permanent disconnect closes the connection underneath the bus
		{"conn_close", func(b *NATSBus) { b.Conn().Close() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestNATSBus(t, 0)
			sub, err := b.Subscribe("recents.test.close")
			if err != nil {
				t.Fatalf("Subscribe: %v", err)
			}
			tt.close(b)
			waitClosed(t, sub)

			if err := b.Publish("recents.test.close", nil); err != ErrClosed {
				t.Errorf("Publish after close = %v, want ErrClosed", err)
			}
			if _, err := b.Subscribe("recents.test.close"); err != ErrClosed {
				t.Errorf("Subscribe after close = %v, want ErrClosed", err)
			}
		})
	}
}

func TestNATSBus_DropsOnFullBuffer(t *testing.T) {
	b := newTestNATSBus(t, 1)
	defer b.Close()

	sub, err := b.Subscribe("recents.test.drop")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	for i := 0; i < 3; i++ {
		if err := b.Publish("recents.test.drop", []byte{byte(i)}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if err := b.Conn().Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.Dropped() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := b.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if got := receive(t, sub); got.Data[0] != 0 {
		t.Errorf("first message = %v, want 0", got.Data)
	}
}

func TestNATSBus_InvalidURL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	cfg := DefaultNATSConfig()
	cfg.URL = "nats://invalid-host-that-does-not-exist:4222"
	cfg.ConnectTimeout = 500 * time.Millisecond
	cfg.MaxReconnects = 0

	if _, err := NewNATSBus(cfg); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestNATSBus_InvalidSubject(t *testing.T) {
	b := newTestNATSBus(t, 0)
	defer b.Close()
	if err := b.Publish("", nil); err != ErrInvalidSubject {
		t.Errorf("Publish(\"\") = %v, want ErrInvalidSubject", err)
	}
}
