package bus

import (
	"sync"
	"testing"
	"time"
)

func TestValidateSubject(t *testing.T) {
	tests := []struct {
		subject string
		wantErr bool
	}{
		{"recents", false},
		{"recents.settings", false},
		{"recents.settings.user", false},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateSubject(tt.subject)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSubject(%q) = %v, wantErr %v", tt.subject, err, tt.wantErr)
		}
	}
}

func TestMemoryBus_Publish(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	// Publish without subscribers should not error
	if err := bus.Publish("recents.settings", []byte("hello")); err != nil {
		t.Errorf("Publish error: %v", err)
	}
}

func TestMemoryBus_PublishInvalidSubject(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	if err := bus.Publish("", []byte("hello")); err != ErrInvalidSubject {
		t.Errorf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestMemoryBus_DefaultBufferSize(t *testing.T) {
	bus := NewMemoryBus(Config{})
	if bus.config.BufferSize != DefaultConfig().BufferSize {
		t.Errorf("BufferSize = %d, want %d", bus.config.BufferSize, DefaultConfig().BufferSize)
	}
}

func TestMemoryBus_Subscribe(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	sub, err := bus.Subscribe("recents.settings")
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	defer sub.Unsubscribe()

	bus.Publish("recents.settings", []byte("hello"))

	select {
	case msg := <-sub.Messages():
		if string(msg.Data) != "hello" {
			t.Errorf("data = %q, want %q", msg.Data, "hello")
		}
		if msg.Subject != "recents.settings" {
			t.Errorf("subject = %q, want %q", msg.Subject, "recents.settings")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for message")
	}
}

func TestMemoryBus_PublishMsgHeader(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	a, _ := bus.Subscribe("recents.settings")
	b, _ := bus.Subscribe("recents.settings")

	header := map[string]string{"traceparent": "00-abc-def-01"}
	if err := bus.PublishMsg(&Message{Subject: "recents.settings", Header: header, Data: []byte("x")}); err != nil {
		t.Fatalf("PublishMsg error: %v", err)
	}
	header["traceparent"] = "changed"

	msgA := <-a.Messages()
	msgB := <-b.Messages()
	if msgA.Header["traceparent"] != "00-abc-def-01" {
		t.Errorf("header = %v, want original traceparent", msgA.Header)
	}
	msgA.Header["traceparent"] = "mutated"
	if msgB.Header["traceparent"] != "00-abc-def-01" {
		t.Errorf("subscribers share header map: %v", msgB.Header)
	}
}

func TestMemoryBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	const n = 3
	subs := make([]Subscription, n)
	for i := range subs {
		sub, err := bus.Subscribe("recents.settings")
		if err != nil {
			t.Fatalf("Subscribe error: %v", err)
		}
		subs[i] = sub
	}

	bus.Publish("recents.settings", []byte("broadcast"))

	for i, sub := range subs {
		select {
		case msg := <-sub.Messages():
			if string(msg.Data) != "broadcast" {
				t.Errorf("sub %d: data = %q", i, msg.Data)
			}
		case <-time.After(time.Second):
			t.Errorf("sub %d: timeout", i)
		}
	}
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	bus.Close()

	if err := bus.Publish("recents.settings", []byte("hello")); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryBus_SubscribeAfterClose(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	bus.Close()

	if _, err := bus.Subscribe("recents.settings"); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	defer bus.Close()

	sub, _ := bus.Subscribe("recents.settings")
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe error: %v", err)
	}
	// second call is a no-op
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("second Unsubscribe error: %v", err)
	}

	if _, ok := <-sub.Messages(); ok {
		t.Error("channel should be closed after unsubscribe")
	}

	bus.mu.RLock()
	n := len(bus.subs["recents.settings"])
	bus.mu.RUnlock()
	if n != 0 {
		t.Errorf("subs = %d, want 0", n)
	}
	if err := bus.Publish("recents.settings", []byte("late")); err != nil {
		t.Errorf("Publish error: %v", err)
	}
}

func TestMemoryBus_CloseClosesSubscriptions(t *testing.T) {
	bus := NewMemoryBus(DefaultConfig())
	sub, _ := bus.Subscribe("recents.settings")

	bus.Close()

	select {
	case _, ok := <-sub.Messages():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for channel close")
	}

	if err := bus.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Errorf("Unsubscribe after Close error: %v", err)
	}
}

func TestMemoryBus_BufferFull(t *testing.T) {
	bus := NewMemoryBus(Config{BufferSize: 2})
	defer bus.Close()

	sub, _ := bus.Subscribe("recents.settings")
	defer sub.Unsubscribe()

	for i := 0; i < 5; i++ {
		if err := bus.Publish("recents.settings", []byte{byte(i)}); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}

	if got := len(sub.Messages()); got != 2 {
		t.Errorf("buffered = %d, want 2", got)
	}
	if got := bus.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestMemoryBus_ConcurrentPublishAndClose(t *testing.T) {
	bus := NewMemoryBus(Config{BufferSize: 1})
	sub, _ := bus.Subscribe("recents.settings")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish("recents.settings", []byte("x"))
			}
		}()
	}
	bus.Close()
	wg.Wait()

	for range sub.Messages() {
	}
}

// --- Benchmarks ---

func BenchmarkMemoryBus_Publish(b *testing.B) {
	bus := NewMemoryBus(Config{BufferSize: 10000})
	defer bus.Close()

	sub, _ := bus.Subscribe("bench")
	go func() {
		for range sub.Messages() {
		}
	}()

	data := []byte("benchmark message")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Publish("bench", data)
	}
}
