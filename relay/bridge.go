package relay

import (
	"context"
	"encoding/json"

	"github.com/vinayprograms/recents/bus"
	"github.com/vinayprograms/recents/errors"
	"github.com/vinayprograms/recents/logging"
	"github.com/vinayprograms/recents/telemetry"
)

// DefaultSubject is the bus subject settings events travel on.
const DefaultSubject = "recents.settings"

// Bridge connects a Service to a message bus. Publishing goes to every
// process serving the subject; Serve feeds the subject into the local
// Service.
type Bridge struct {
	bus     bus.MessageBus
	subject string
	svc     *Service
	tracer  *telemetry.Tracer
	log     *logging.Logger
}

// NewBridge creates a bridge for svc on subject. An empty subject uses
// DefaultSubject.
func NewBridge(b bus.MessageBus, subject string, svc *Service) *Bridge {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Bridge{
		bus:     b,
		subject: subject,
		svc:     svc,
		tracer:  svc.tracer,
		log:     svc.log.WithComponent("relay-bridge"),
	}
}

// Subject returns the bus subject.
func (b *Bridge) Subject() string {
	return b.subject
}

// AddCallback registers cb with the local Service.
func (b *Bridge) AddCallback(cb Callback) error {
	return b.svc.AddCallback(cb)
}

// UnregisterCallback removes cb from the local Service.
func (b *Bridge) UnregisterCallback(cb Callback) {
	b.svc.UnregisterCallback(cb)
}

// DispatchValueChanged publishes ev on the bus. Delivery counts are only
// known to the serving side, so the result carries the event ID alone.
func (b *Bridge) DispatchValueChanged(ctx context.Context, ev Event) (DispatchResult, error) {
	result := DispatchResult{EventID: ev.ID}
	if err := ev.Validate(); err != nil {
		return result, err
	}
	return result, b.Publish(ctx, ev)
}

// Publish sends ev to the subject with the current trace context attached.
func (b *Bridge) Publish(ctx context.Context, ev Event) error {
	ctx, span := b.tracer.StartPublishSpan(ctx, b.subject)

	data, err := json.Marshal(ev)
	if err != nil {
		err = errors.Wrap(err, "encode event")
		b.tracer.EndSpan(span, err)
		return err
	}

	header := telemetry.MapCarrier{}
	telemetry.InjectContext(ctx, header)

	err = b.bus.PublishMsg(&bus.Message{
		Subject: b.subject,
		Header:  header,
		Data:    data,
	})
	if err != nil {
		err = errors.WrapWithCode(err, errors.ErrCodeUnavailable, "publish event",
			errors.WithMetadata("subject", b.subject))
	}
	b.tracer.EndSpan(span, err)
	return err
}

// Serve dispatches events from the subject into the Service until ctx is
// done or the subscription ends. A subscription that ends on its own means
// the transport is gone: ServiceDied is broadcast and an UNAVAILABLE error
// returned.
func (b *Bridge) Serve(ctx context.Context) error {
	sub, err := b.subscribe()
	if err != nil {
		return err
	}
	return b.serve(ctx, sub)
}

func (b *Bridge) subscribe() (bus.Subscription, error) {
	sub, err := b.bus.Subscribe(b.subject)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "subscribe",
			errors.WithMetadata("subject", b.subject))
	}
	return sub, nil
}

func (b *Bridge) serve(ctx context.Context, sub bus.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return ctx.Err()
		case msg, ok := <-sub.Messages():
			if !ok {
				b.svc.ServiceDied(context.WithoutCancel(ctx))
				return errors.New(errors.ErrCodeUnavailable, "relay transport lost",
					errors.WithMetadata("subject", b.subject))
			}
			b.handle(ctx, msg)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, msg *bus.Message) {
	if msg.Header != nil {
		ctx = telemetry.ExtractContext(ctx, telemetry.MapCarrier(msg.Header))
	}
	ctx, span := b.tracer.StartReceiveSpan(ctx, msg.Subject)

	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		err = errors.Wrap(err, "decode event", errors.WithMetadata("subject", msg.Subject))
		b.log.Warn("dropping malformed event", map[string]interface{}{"error": err})
		b.tracer.EndSpan(span, err)
		return
	}

	_, err := b.svc.DispatchValueChanged(ctx, ev)
	if err != nil {
		b.log.Warn("dispatch failed", map[string]interface{}{
			"event_id": ev.ID.String(),
			"error":    err,
		})
	}
	b.tracer.EndSpan(span, err)
}
