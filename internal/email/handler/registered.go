package handler

import (
	"context"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// Registered is the type-erased handler held by the dispatch coordinator.
type Registered interface {
	Type() string
	EventType() event.Type
	Description() string
	Templates() []TemplateConfig
	Handle(ctx context.Context, ev event.Event, globals map[string]any, inj Injector) (*entity.Job, error)
	Resend() Resender
	MockEvent() (event.Event, bool)
}

var (
	_ Registered = (*Handler[event.OrderStateTransitionEvent, event.OrderStateTransitionEvent])(nil)
	_ Resender   = (*ResendOptions[event.PasswordResetEvent])(nil)
)
