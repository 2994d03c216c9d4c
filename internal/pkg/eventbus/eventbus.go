// Package eventbus publishes and subscribes typed commerce events over the
// messaging layer.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrUnknownType = errors.New("eventbus: unknown event type")

// Handler receives decoded events. Returned errors are logged only.
type Handler func(ctx context.Context, ev event.Event) error

// Bus is the event bus as seen by the email service.
type Bus interface {
	Publish(ctx context.Context, ev event.Event) error
	// Subscribe delivers every event of type t to fn once per group.
	Subscribe(ctx context.Context, t event.Type, group string, fn Handler) error
}

type Broker struct {
	messenger   messaging.Messaging
	routine     *goroutine.Manager
	uuid        uid.StringID
	ins         instrument.Instrumentation
	concurrency int
}

type Option func(*Broker)

// WithConcurrency sets the number of events handled in parallel per subscription.
func WithConcurrency(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func New(messenger messaging.Messaging, routine *goroutine.Manager, uuid uid.StringID, ins instrument.Instrumentation, opts ...Option) *Broker {
	b := &Broker{
		messenger:   messenger,
		routine:     routine,
		uuid:        uuid,
		ins:         ins,
		concurrency: 10,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Publish(ctx context.Context, ev event.Event) error {
	if ev == nil {
		return errors.New("eventbus: nil event")
	}

	ctx, span := b.ins.Tracer("pkg.eventbus").Start(ctx, "Publish")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", ev.EventType().String()))

	body, err := event.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode event")
		return err
	}

	var headers []messaging.Header
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers = append(headers, messaging.Header{Key: messaging.HeaderCorrelationID, Value: []byte(cID)})
	}
	headers = messaging.InjectTrace(ctx, headers)

	if _, err := b.messenger.Publish(ctx, event.TopicFor(ev.EventType()), messaging.OutgoingMessage{
		Body:    body,
		Headers: headers,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish event")
		return fmt.Errorf("eventbus: publish %s: %w", ev.EventType(), err)
	}

	return nil
}

func (b *Broker) Subscribe(ctx context.Context, t event.Type, group string, fn Handler) error {
	if !event.Known(t) {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if group == "" {
		return messaging.ErrGroupRequired
	}
	if fn == nil {
		return messaging.ErrHandlerRequired
	}

	topic := event.TopicFor(t)
	if d, ok := b.messenger.(messaging.Declarer); ok {
		if err := d.Declare(ctx, topic, group); err != nil {
			return err
		}
	}

	return b.routine.Go(ctx, "subscription:"+string(t)+"/"+group, func(ctx context.Context) error {
		slog.InfoContext(ctx, "subscribing to event", "event_type", t, "group", group)
		return b.messenger.Consume(ctx, topic, b.handle(t, group, fn),
			messaging.WithGroup(group),
			messaging.WithAutoAck(true),
			messaging.WithConcurrency(b.concurrency),
			messaging.WithMaxInFlight(b.concurrency),
		)
	})
}

func (b *Broker) handle(t event.Type, group string, fn Handler) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx = messaging.ExtractTrace(ctx, msg.Headers())
		cID := messaging.HeaderValue(msg.Headers(), messaging.HeaderCorrelationID)
		if cID == "" {
			cID = b.uuid.Generate()
		}
		ctx = instrument.SetCorrelationID(ctx, cID)

		ctx, span := b.ins.Tracer("pkg.eventbus").Start(ctx, "Handle")
		defer span.End()
		span.SetAttributes(
			attribute.String("event.type", t.String()),
			attribute.String("event.group", group),
		)

		ev, err := event.Unmarshal(msg.Body())
		if err != nil {
			slog.ErrorContext(ctx, "failed to decode event", "event_type", t, "message_id", msg.ID(), "error", err)
			return nil
		}
		if ev.EventType() != t {
			slog.WarnContext(ctx, "event type does not match topic", "want", t, "got", ev.EventType())
			return nil
		}

		if err := fn(ctx, ev); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "handler failed")
			slog.ErrorContext(ctx, "event handler failed", "event_type", t, "group", group, "error", err)
		}
		return nil
	}
}
