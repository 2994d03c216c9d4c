package handler

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// Loaded is what resolvers see on a handler built with LoadData.
type Loaded[E event.Event, D any] struct {
	Event E
	Data  D
}

// LoadFunc fetches extra data for an event before its email is resolved.
// A returned error suppresses the email.
type LoadFunc[E event.Event, D any] func(ctx context.Context, e E, inj Injector) (D, error)

// LoadData returns a handler whose resolvers receive the event together
// with the data produced by fn. Everything configured on h carries over.
func LoadData[E event.Event, D any](h *Handler[E, E], fn LoadFunc[E, D]) *Handler[E, Loaded[E, D]] {
	src := h.clone()

	out := &Handler[E, Loaded[E, D]]{
		typ:         src.typ,
		eventType:   src.eventType,
		description: src.description,
		view: func(ctx context.Context, e E, inj Injector) (Loaded[E, D], error) {
			d, err := fn(ctx, e, inj)
			if err != nil {
				return Loaded[E, D]{}, err
			}
			return Loaded[E, D]{Event: e, Data: d}, nil
		},
		filters:   src.filters,
		from:      src.from,
		subject:   src.subject,
		templates: src.templates,
		resend:    src.resend,
		mock:      src.mock,
	}

	if f := src.recipient; f != nil {
		out.recipient = func(l Loaded[E, D]) string { return f(l.Event) }
	}
	if f := src.languageFn; f != nil {
		out.languageFn = func(l Loaded[E, D]) string { return f(l.Event) }
	}
	if f := src.subjectFn; f != nil {
		out.subjectFn = func(ctx context.Context, l Loaded[E, D], rc event.RequestContext, inj Injector) (string, error) {
			return f(ctx, l.Event, rc, inj)
		}
	}
	if f := src.varsFn; f != nil {
		out.varsFn = func(l Loaded[E, D], globals map[string]any) map[string]any { return f(l.Event, globals) }
	}
	if f := src.attachFn; f != nil {
		out.attachFn = func(ctx context.Context, l Loaded[E, D], inj Injector) ([]attachment.Attachment, error) {
			return f(ctx, l.Event, inj)
		}
	}
	if f := src.addressesFn; f != nil {
		out.addressesFn = func(l Loaded[E, D]) Addresses { return f(l.Event) }
	}

	return out
}
