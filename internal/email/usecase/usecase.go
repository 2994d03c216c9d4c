package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/email/sender"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/eventbus"
	"github.com/shandysiswandi/mailbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/strcase"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"github.com/shandysiswandi/mailbite/internal/pkg/validator"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	FindOrder(ctx context.Context, id int64) (event.Order, error)
	FindCustomer(ctx context.Context, id int64) (event.Customer, error)
	CreateSendLog(ctx context.Context, log entity.SendLog) error
}

type repoQueue interface {
	PublishJob(ctx context.Context, job entity.Job) error
}

type repoArchive interface {
	Archive(ctx context.Context, jobID int64, email entity.EmailDetails) error
}

type repoTemplate interface {
	LoadTemplate(ctx context.Context, handlerType, file string) (string, error)
}

type emailGenerator interface {
	Generate(ctx context.Context, from, subject, body string, vars map[string]any) (entity.GeneratedEmail, error)
}

type emailSender interface {
	Send(ctx context.Context, email entity.EmailDetails, t sender.Transport) error
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB      repoDB
	repoQueue   repoQueue
	repoArchive repoArchive
	templates   repoTemplate
	generator   emailGenerator
	sender      emailSender
	transports  sender.TransportResolver
	bus         eventbus.Bus
	guard       idempotency.Guard
	codec       attachment.Codec
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	validator   validator.Validator
	enforcer    enforcer
	ins         instrument.Instrumentation
	metrics     metrics
	mailboxDir  string

	handlers map[string]handler.Registered
	order    []string

	subMu      sync.Mutex
	subscribed map[string]struct{}
}

type Dependency struct {
	RepoDB repoDB
	// RepoQueue is nil when jobs are processed inline.
	RepoQueue repoQueue
	// RepoArchive is optional.
	RepoArchive repoArchive
	Templates   repoTemplate
	Generator   emailGenerator
	Sender      emailSender
	Transports  sender.TransportResolver
	Bus         eventbus.Bus
	Guard       idempotency.Guard
	Codec       attachment.Codec
	Handlers    []handler.Registered
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Enforcer    enforcer
	Instrument  instrument.Instrumentation
	// MailboxDir is the output directory of the file transport read by the
	// dev mailbox.
	MailboxDir string
}

func NewEmail(dep Dependency) (*Usecase, error) {
	s := &Usecase{
		repoDB:      dep.RepoDB,
		repoQueue:   dep.RepoQueue,
		repoArchive: dep.RepoArchive,
		templates:   dep.Templates,
		generator:   dep.Generator,
		sender:      dep.Sender,
		transports:  dep.Transports,
		bus:         dep.Bus,
		guard:       dep.Guard,
		codec:       dep.Codec,
		cfg:         dep.Config,
		uid:         dep.UID,
		clock:       dep.Clock,
		validator:   dep.Validator,
		enforcer:    dep.Enforcer,
		ins:         dep.Instrument,
		metrics:     newMetrics(dep.Instrument),
		mailboxDir:  dep.MailboxDir,
		handlers:    make(map[string]handler.Registered, len(dep.Handlers)),
		subscribed:  make(map[string]struct{}),
	}
	if s.guard == nil {
		s.guard = idempotency.Noop{}
	}
	if s.transports == nil {
		s.transports = sender.Static(sender.NoneTransport{})
	}

	for _, h := range dep.Handlers {
		if _, ok := s.handlers[h.Type()]; ok {
			return nil, fmt.Errorf("email: duplicate handler type %q", h.Type())
		}
		if !event.Known(h.EventType()) {
			return nil, fmt.Errorf("email: handler %q listens to unknown event type %q", h.Type(), h.EventType())
		}
		s.handlers[h.Type()] = h
		s.order = append(s.order, h.Type())
	}

	return s, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("email.usecase").Start(ctx, name)
}

// globals are the template variables shared by every handler. Config keys
// are snake_case and exposed to templates in lowerCamelCase.
func (s *Usecase) globals() map[string]any {
	vars := s.cfg.GetStringMap("modules.email.template_vars")
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[strcase.ToLowerCamel(k)] = v
	}
	return out
}

type metrics struct {
	jobs     metric.Int64Counter
	sends    metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(ins instrument.Instrumentation) metrics {
	meter := ins.Meter("email.usecase")

	jobs, err := meter.Int64Counter("email.jobs.created", metric.WithDescription("Number of email jobs produced by handlers"))
	if err != nil {
		slog.Error("failed to create email job counter", "error", err)
		jobs = noop.Int64Counter{}
	}

	sends, err := meter.Int64Counter("email.sends", metric.WithDescription("Number of processed email jobs"))
	if err != nil {
		slog.Error("failed to create email send counter", "error", err)
		sends = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("email.send.duration", metric.WithDescription("Email job processing duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create email duration histogram", "error", err)
		duration = noop.Float64Histogram{}
	}

	return metrics{jobs: jobs, sends: sends, duration: duration}
}
