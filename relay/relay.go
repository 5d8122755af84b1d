package relay

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/logging"
	"github.com/vinayprograms/recents/metrics"
	"github.com/vinayprograms/recents/telemetry"
)

// Event is one settings value change.
type Event struct {
	ID    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Value string    `json:"value"`
	Time  time.Time `json:"time"`
}

// NewEvent stamps a change of key to value with a fresh ID.
func NewEvent(key, value string) Event {
	return Event{
		ID:    uuid.New(),
		Key:   key,
		Value: value,
		Time:  time.Now().UTC(),
	}
}

// Validate reports whether the event can be dispatched.
func (e Event) Validate() error {
	if e.Key == "" {
		return errors.InvalidInput("event key is empty")
	}
	return nil
}

// Callback receives relay events. Implementations must be comparable;
// pointer receivers are the norm.
type Callback interface {
	OnValueChanged(ctx context.Context, ev Event) error
	OnServiceDied(ctx context.Context) error
}

// Named lets a callback choose how it appears in logs.
type Named interface {
	Name() string
}

// CallbackFuncs adapts plain functions to Callback. Nil fields are no-ops.
type CallbackFuncs struct {
	ID          string
	ValueChanged func(ctx context.Context, ev Event) error
	ServiceDied  func(ctx context.Context) error
}

func (f *CallbackFuncs) OnValueChanged(ctx context.Context, ev Event) error {
	if f.ValueChanged == nil {
		return nil
	}
	return f.ValueChanged(ctx, ev)
}

func (f *CallbackFuncs) OnServiceDied(ctx context.Context) error {
	if f.ServiceDied == nil {
		return nil
	}
	return f.ServiceDied(ctx)
}

func (f *CallbackFuncs) Name() string {
	if f.ID != "" {
		return f.ID
	}
	return "funcs"
}

// DispatchResult summarizes one fan-out.
type DispatchResult struct {
	EventID   uuid.UUID
	Callbacks int
	Delivered int
	Failed    int
	Skipped   int
	Pruned    int
}

// Options configures a Service. Zero values are usable.
type Options struct {
	Logger  *logging.Logger
	Tracer  *telemetry.Tracer
	Metrics *metrics.RelayMetrics
	Journal telemetry.Journal
}

// Service is the callback registry and dispatcher.
type Service struct {
	log     *logging.Logger
	tracer  *telemetry.Tracer
	metrics *metrics.RelayMetrics
	journal telemetry.Journal

	mu        sync.Mutex
	callbacks []Callback
	dead      bool
}

// NewService creates a live Service.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.GetTracer()
	}
	if opts.Journal == nil {
		opts.Journal = telemetry.NoopJournal{}
	}
	return &Service{
		log:     opts.Logger.WithComponent("relay"),
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		journal: opts.Journal,
	}
}

// AddCallback registers cb. Registering the same callback twice is a no-op.
func (s *Service) AddCallback(cb Callback) error {
	if cb == nil {
		return errors.InvalidInput("callback is nil")
	}
	if !reflect.TypeOf(cb).Comparable() {
		return errors.Newf(errors.ErrCodeInvalidInput, "callback type %T is not comparable", cb)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return errors.New(errors.ErrCodeCanceled, "relay service is dead")
	}
	if !slices.Contains(s.callbacks, cb) {
		s.callbacks = append(s.callbacks, cb)
	}
	s.metrics.SetCallbacks(len(s.callbacks))
	return nil
}

// UnregisterCallback removes cb if present.
func (s *Service) UnregisterCallback(cb Callback) {
	if cb == nil || !reflect.TypeOf(cb).Comparable() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.callbacks, cb); i >= 0 {
		s.callbacks = slices.Delete(s.callbacks, i, i+1)
	}
	s.metrics.SetCallbacks(len(s.callbacks))
}

// Len returns the number of registered callbacks.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

// Dead reports whether ServiceDied has run.
func (s *Service) Dead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead
}

// DispatchValueChanged delivers ev to every registered callback in
// registration order. Callbacks run outside the lock, so they may register
// or unregister during delivery; such changes apply to the next dispatch.
func (s *Service) DispatchValueChanged(ctx context.Context, ev Event) (DispatchResult, error) {
	result := DispatchResult{EventID: ev.ID}
	if err := ev.Validate(); err != nil {
		return result, err
	}

	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return result, errors.New(errors.ErrCodeCanceled, "relay service is dead",
			errors.WithMetadata("event_id", ev.ID.String()))
	}
	callbacks := slices.Clone(s.callbacks)
	s.mu.Unlock()

	start := time.Now()
	ctx, span := s.tracer.StartDispatchSpan(ctx, ev.Key)
	result.Callbacks = len(callbacks)

	var gone []Callback
	for _, cb := range callbacks {
		if isNil(cb) {
			result.Skipped++
			continue
		}
		err := invoke(func() error { return cb.OnValueChanged(ctx, ev) })
		if err == nil {
			result.Delivered++
			continue
		}
		result.Failed++
		pruned := errors.Is(err, errors.ErrCodePeerGone)
		if pruned {
			gone = append(gone, cb)
		}
		s.log.CallbackFailed(callbackName(cb), "value_changed", err, pruned)
	}
	result.Pruned = s.prune(gone)

	elapsed := time.Since(start)
	s.tracer.EndDispatchSpan(span, telemetry.DispatchSpanOptions{
		EventID:   ev.ID.String(),
		Key:       ev.Key,
		Value:     ev.Value,
		Callbacks: result.Callbacks,
		Delivered: result.Delivered,
		Failed:    result.Failed,
		Pruned:    result.Pruned,
	}, nil)
	s.metrics.ObserveDispatch(result.Delivered, result.Failed, result.Pruned, elapsed)
	s.journal.Record("relay.dispatch", map[string]interface{}{
		"event_id":  ev.ID.String(),
		"key":       ev.Key,
		"delivered": result.Delivered,
		"failed":    result.Failed,
		"pruned":    result.Pruned,
	})
	s.log.DispatchComplete(ev.ID.String(), result.Delivered, result.Failed, elapsed)
	return result, nil
}

// ServiceDied broadcasts the terminal signal in reverse registration order
// and clears the registry. Only the first call has any effect.
func (s *Service) ServiceDied(ctx context.Context) {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return
	}
	s.dead = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for i := len(callbacks) - 1; i >= 0; i-- {
		cb := callbacks[i]
		if isNil(cb) {
			continue
		}
		if err := invoke(func() error { return cb.OnServiceDied(ctx) }); err != nil {
			s.log.CallbackFailed(callbackName(cb), "service_died", err, false)
		}
	}

	s.metrics.SetCallbacks(0)
	s.journal.Record("relay.service_died", map[string]interface{}{
		"callbacks": len(callbacks),
	})
	s.log.ServiceDied(len(callbacks))
}

// prune drops the given callbacks from the registry and returns how many
// were still present.
func (s *Service) prune(gone []Callback) int {
	if len(gone) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cb := range gone {
		if i := slices.Index(s.callbacks, cb); i >= 0 {
			s.callbacks = slices.Delete(s.callbacks, i, i+1)
			n++
		}
	}
	s.metrics.SetCallbacks(len(s.callbacks))
	return n
}

// invoke runs fn, turning a panic into a PANIC-coded error.
func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
	}()
	return fn()
}

// isNil catches typed nil pointers stored in the interface.
func isNil(cb Callback) bool {
	if cb == nil {
		return true
	}
	v := reflect.ValueOf(cb)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func callbackName(cb Callback) string {
	if n, ok := cb.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", cb)
}
