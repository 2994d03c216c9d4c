// Package handler defines email event handlers: the rules that turn one
// kind of commerce event into an email job.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/pkg/valueobject"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

var (
	ErrNoRecipient   = errors.New("handler: recipient resolver is not configured")
	ErrNoFrom        = errors.New("handler: from address is not configured")
	ErrNoSubject     = errors.New("handler: subject could not be resolved")
	ErrEventMismatch = errors.New("handler: event does not match handler")
)

// Injector gives handler callbacks access to commerce lookups.
type Injector interface {
	FindOrder(ctx context.Context, id int64) (event.Order, error)
	FindCustomer(ctx context.Context, id int64) (event.Customer, error)
}

// Addresses holds the optional address fields of an email.
type Addresses struct {
	Cc      string
	Bcc     string
	ReplyTo string
}

type (
	SubjectFunc[V any]     func(ctx context.Context, v V, rc event.RequestContext, inj Injector) (string, error)
	VarsFunc[V any]        func(v V, globals map[string]any) map[string]any
	AttachmentsFunc[V any] func(ctx context.Context, v V, inj Injector) ([]attachment.Attachment, error)
)

// Handler turns events of type E into email jobs. V is the value seen by
// the resolvers: E itself, or Loaded[E, D] once LoadData has been applied.
// Every builder method returns a new Handler and leaves the receiver as is.
type Handler[E event.Event, V any] struct {
	typ         string
	eventType   event.Type
	description string

	view func(ctx context.Context, e E, inj Injector) (V, error)

	filters     []func(E) bool
	recipient   func(V) string
	from        string
	subject     string
	subjectFn   SubjectFunc[V]
	languageFn  func(V) string
	templates   []TemplateConfig
	varsFn      VarsFunc[V]
	attachFn    AttachmentsFunc[V]
	addressesFn func(V) Addresses
	resend      *ResendOptions[E]
	mock        *E
}

// New creates a handler for events of type E. eventType must be the tag
// E reports.
func New[E event.Event](typ string, eventType event.Type, description string) *Handler[E, E] {
	return &Handler[E, E]{
		typ:         typ,
		eventType:   eventType,
		description: description,
		view: func(_ context.Context, e E, _ Injector) (E, error) {
			return e, nil
		},
	}
}

func (h *Handler[E, V]) clone() *Handler[E, V] {
	c := *h
	c.filters = slices.Clone(h.filters)
	c.templates = slices.Clone(h.templates)
	return &c
}

// Filter adds a predicate. All predicates must pass, in the order added.
func (h *Handler[E, V]) Filter(fn func(E) bool) *Handler[E, V] {
	c := h.clone()
	c.filters = append(c.filters, fn)
	return c
}

// SetRecipient sets the recipient resolver. The returned string may hold
// display names and comma separated addresses.
func (h *Handler[E, V]) SetRecipient(fn func(V) string) *Handler[E, V] {
	c := h.clone()
	c.recipient = fn
	return c
}

// SetFrom sets the from address template.
func (h *Handler[E, V]) SetFrom(from string) *Handler[E, V] {
	c := h.clone()
	c.from = from
	return c
}

// SetSubject sets the default subject template.
func (h *Handler[E, V]) SetSubject(subject string) *Handler[E, V] {
	c := h.clone()
	c.subject = subject
	c.subjectFn = nil
	return c
}

// SetSubjectFn computes the default subject per event.
func (h *Handler[E, V]) SetSubjectFn(fn SubjectFunc[V]) *Handler[E, V] {
	c := h.clone()
	c.subjectFn = fn
	return c
}

// SetLanguageCode overrides the language taken from the request context.
// An empty result keeps the request language.
func (h *Handler[E, V]) SetLanguageCode(fn func(V) string) *Handler[E, V] {
	c := h.clone()
	c.languageFn = fn
	return c
}

// AddTemplate adds a channel and language specific template override.
func (h *Handler[E, V]) AddTemplate(cfg TemplateConfig) *Handler[E, V] {
	c := h.clone()
	c.templates = append(c.templates, cfg)
	return c
}

// SetTemplateVars sets the resolver for handler template variables. Its
// keys take precedence over global variables.
func (h *Handler[E, V]) SetTemplateVars(fn VarsFunc[V]) *Handler[E, V] {
	c := h.clone()
	c.varsFn = fn
	return c
}

// SetAttachments sets the attachment resolver. Its failures are logged and
// the email is sent without attachments.
func (h *Handler[E, V]) SetAttachments(fn AttachmentsFunc[V]) *Handler[E, V] {
	c := h.clone()
	c.attachFn = fn
	return c
}

// SetOptionalAddressFields sets the cc, bcc and reply-to resolver.
func (h *Handler[E, V]) SetOptionalAddressFields(fn func(V) Addresses) *Handler[E, V] {
	c := h.clone()
	c.addressesFn = fn
	return c
}

// SetResendOptions makes the handler's email resendable from an entity.
func (h *Handler[E, V]) SetResendOptions(opts ResendOptions[E]) *Handler[E, V] {
	c := h.clone()
	c.resend = &opts
	return c
}

// SetMockEvent sets the event used for previews.
func (h *Handler[E, V]) SetMockEvent(ev E) *Handler[E, V] {
	c := h.clone()
	c.mock = &ev
	return c
}

func (h *Handler[E, V]) Type() string { return h.typ }

func (h *Handler[E, V]) EventType() event.Type { return h.eventType }

func (h *Handler[E, V]) Description() string { return h.description }

func (h *Handler[E, V]) Templates() []TemplateConfig { return slices.Clone(h.templates) }

// MockEvent returns the preview event, if one was set.
func (h *Handler[E, V]) MockEvent() (event.Event, bool) {
	if h.mock == nil {
		return nil, false
	}
	return *h.mock, true
}

// Resend returns the resend operation, or nil when the handler has none.
func (h *Handler[E, V]) Resend() Resender {
	if h.resend == nil {
		return nil
	}
	return h.resend
}

// Handle runs the handler against ev. A nil job with a nil error means the
// event does not produce an email. Errors are configuration mistakes.
func (h *Handler[E, V]) Handle(ctx context.Context, ev event.Event, globals map[string]any, inj Injector) (*entity.Job, error) {
	e, ok := asEvent[E](ev)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrEventMismatch, h.typ, ev)
	}

	for _, f := range h.filters {
		if !f(e) {
			return nil, nil
		}
	}

	v, err := h.view(ctx, e, inj)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load email data", "handler", h.typ, "event_type", h.eventType, "error", err)
		return nil, nil
	}

	if h.recipient == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRecipient, h.typ)
	}
	if h.from == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoFrom, h.typ)
	}

	rc := e.Context().Normalize()
	if h.languageFn != nil {
		if l := h.languageFn(v); l != "" {
			rc.LanguageCode = l
		}
	}

	subject, templateFile, err := h.resolveTemplate(ctx, v, rc, inj)
	if err != nil {
		return nil, err
	}

	vars := valueobject.JSONMap(globals).Merge()
	if h.varsFn != nil {
		vars = vars.Merge(h.varsFn(v, globals))
	}

	job := &entity.Job{
		Type:         h.typ,
		EventType:    h.eventType,
		Recipient:    h.recipient(v),
		From:         h.from,
		Subject:      subject,
		TemplateFile: templateFile,
		TemplateVars: vars,
		Attachments:  h.attachments(ctx, v, inj),
		Context:      rc,
	}
	if h.addressesFn != nil {
		a := h.addressesFn(v)
		job.Cc, job.Bcc, job.ReplyTo = a.Cc, a.Bcc, a.ReplyTo
	}

	return job, nil
}

func (h *Handler[E, V]) resolveTemplate(ctx context.Context, v V, rc event.RequestContext, inj Injector) (string, string, error) {
	subject, templateFile := "", entity.DefaultTemplateFile

	cfg, found := h.BestConfiguration(rc.ChannelCode, rc.LanguageCode)
	if found {
		subject = cfg.Subject
		if cfg.TemplateFile != "" {
			templateFile = cfg.TemplateFile
		}
	}

	if subject == "" {
		switch {
		case h.subjectFn != nil:
			s, err := h.subjectFn(ctx, v, rc, inj)
			if err != nil {
				return "", "", fmt.Errorf("%w: %s: %w", ErrNoSubject, h.typ, err)
			}
			subject = s
		default:
			subject = h.subject
		}
	}

	if subject == "" {
		return "", "", fmt.Errorf("%w: %s", ErrNoSubject, h.typ)
	}
	return subject, templateFile, nil
}

func (h *Handler[E, V]) attachments(ctx context.Context, v V, inj Injector) []attachment.Serialized {
	if h.attachFn == nil {
		return nil
	}

	atts, err := h.attachFn(ctx, v, inj)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve email attachments, sending without them",
			"handler", h.typ, "event_type", h.eventType, "error", err)
		return nil
	}

	ser, err := attachment.Codec{}.Serialize(ctx, atts)
	if err != nil {
		slog.ErrorContext(ctx, "failed to serialize email attachments, sending without them",
			"handler", h.typ, "event_type", h.eventType, "error", err)
		return nil
	}
	return ser
}

func asEvent[E event.Event](ev event.Event) (E, bool) {
	switch t := any(ev).(type) {
	case E:
		return t, true
	case *E:
		if t != nil {
			return *t, true
		}
	}
	var zero E
	return zero, false
}
