package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

const (
	groupPrefix = "email."
	resendGroup = "email.resend"
)

// Bootstrap subscribes every registered handler to its event type, plus
// one subscription routing resend events to the handler they name. Calling
// it again only subscribes what is not subscribed yet.
func (s *Usecase) Bootstrap(ctx context.Context) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, typ := range s.order {
		if _, ok := s.subscribed[typ]; ok {
			continue
		}

		h := s.handlers[typ]
		err := s.bus.Subscribe(ctx, h.EventType(), groupPrefix+typ, func(ctx context.Context, ev event.Event) error {
			return s.HandleEvent(ctx, h, ev)
		})
		if err != nil {
			return fmt.Errorf("email: subscribe handler %q: %w", typ, err)
		}

		s.subscribed[typ] = struct{}{}
		slog.InfoContext(ctx, "email handler subscribed", "handler_type", typ, "event_type", h.EventType())
	}

	if _, ok := s.subscribed[resendGroup]; !ok {
		if err := s.bus.Subscribe(ctx, event.TypeResendEmail, resendGroup, s.handleResendEvent); err != nil {
			return fmt.Errorf("email: subscribe resend: %w", err)
		}
		s.subscribed[resendGroup] = struct{}{}
	}

	return nil
}

func (s *Usecase) handleResendEvent(ctx context.Context, ev event.Event) error {
	re, ok := ev.(event.ResendEmailEvent)
	if !ok {
		return nil
	}

	h, ok := s.handlers[re.HandlerType]
	if !ok {
		slog.WarnContext(ctx, "resend event names unknown handler", "handler_type", re.HandlerType)
		return nil
	}

	inner, err := event.Decode(re.Inner)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decode resent event", "handler_type", re.HandlerType, "error", err)
		return nil
	}
	if inner.EventType() != h.EventType() {
		slog.WarnContext(ctx, "resent event does not match handler",
			"handler_type", re.HandlerType, "want", h.EventType(), "got", inner.EventType())
		return nil
	}

	return s.HandleEvent(ctx, h, inner)
}

// Handler returns the registered handler of type typ.
func (s *Usecase) Handler(typ string) (handler.Registered, bool) {
	h, ok := s.handlers[typ]
	return h, ok
}
