package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

type (
	ListResendOptionsInput struct {
		EntityType string `validate:"required"`
		EntityID   int64  `validate:"required,gt=0"`
	}

	ResendInput struct {
		Type       string `validate:"required,slug"`
		EntityType string `validate:"required"`
		EntityID   int64  `validate:"required,gt=0"`
		Args       []entity.Arg
	}
)

// ListResendOptions returns the resend operations currently available for
// an entity.
func (s *Usecase) ListResendOptions(ctx context.Context, in ListResendOptionsInput) ([]entity.ResendOption, error) {
	ctx, span := s.startSpan(ctx, "ListResendOptions")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, permObject, permActRead); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	kind, err := entity.ParseKind(in.EntityType)
	if err != nil {
		return nil, err
	}

	ent, err := s.findEntity(ctx, kind, in.EntityID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Entity not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find resend entity", "entity_type", kind, "entity_id", in.EntityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	options := make([]entity.ResendOption, 0)
	for _, typ := range s.order {
		r := s.handlers[typ].Resend()
		if r == nil || r.Kind() != kind {
			continue
		}

		ok, err := r.Check(ctx, s.repoDB, ent)
		if err != nil {
			slog.WarnContext(ctx, "resend check failed", "handler_type", typ, "entity_id", in.EntityID, "error", err)
			continue
		}
		if ok {
			options = append(options, r.Option(typ))
		}
	}

	return options, nil
}

// Resend rebuilds the event of one handler from the current entity state
// and publishes it wrapped in a ResendEmailEvent. Only an invalid request
// is an error. Every other failure is reported as false.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, permObject, permActResend); err != nil {
		return false, err
	}

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	kind, err := entity.ParseKind(in.EntityType)
	if err != nil {
		return false, err
	}

	h, ok := s.handlers[in.Type]
	if !ok || h.Resend() == nil {
		slog.WarnContext(ctx, "resend requested for handler without resend options", "handler_type", in.Type)
		return false, nil
	}
	r := h.Resend()
	if r.Kind() != kind {
		slog.WarnContext(ctx, "resend entity type does not match handler", "handler_type", in.Type, "entity_type", kind)
		return false, nil
	}

	ent, err := s.findEntity(ctx, kind, in.EntityID)
	if err != nil {
		slog.WarnContext(ctx, "resend entity lookup failed", "entity_type", kind, "entity_id", in.EntityID, "error", err)
		return false, nil
	}

	if ok, err := r.Check(ctx, s.repoDB, ent); err != nil || !ok {
		slog.InfoContext(ctx, "resend not allowed for entity", "handler_type", in.Type, "entity_id", in.EntityID, "error", err)
		return false, nil
	}

	ev, err := r.Build(ctx, s.repoDB, ent, in.Args)
	if err != nil {
		slog.WarnContext(ctx, "failed to build resend event", "handler_type", in.Type, "error", err)
		return false, nil
	}

	inner, err := event.Encode(ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode resend event", "handler_type", in.Type, "error", err)
		return false, nil
	}

	if err := s.bus.Publish(ctx, event.ResendEmailEvent{
		Base:        event.NewBase(ev.Context(), s.clock.Now()),
		HandlerType: in.Type,
		Inner:       inner,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish resend event", "handler_type", in.Type, "error", err)
		return false, nil
	}

	return true, nil
}

// findEntity loads the live entity behind a resend request.
func (s *Usecase) findEntity(ctx context.Context, kind entity.Kind, id int64) (event.Entity, error) {
	switch kind {
	case entity.KindOrder:
		return s.repoDB.FindOrder(ctx, id)
	case entity.KindCustomer:
		return s.repoDB.FindCustomer(ctx, id)
	default:
		return nil, entity.ErrInvalidEntityType
	}
}
