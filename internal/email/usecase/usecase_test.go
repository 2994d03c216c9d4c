package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/defaults"
	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/generator"
	"github.com/shandysiswandi/mailbite/internal/email/loader"
	"github.com/shandysiswandi/mailbite/internal/email/sender"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/eventbus"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/validator"
	"github.com/shandysiswandi/mailbite/internal/pkg/valueobject"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  email:
    template_vars:
      from_address: '"Mailbite" <noreply@shop.test>'
      shop_name: Mailbite
`

type fakeDB struct {
	mu        sync.Mutex
	orders    map[int64]event.Order
	customers map[int64]event.Customer
	logs      []entity.SendLog
}

func (f *fakeDB) FindOrder(_ context.Context, id int64) (event.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return event.Order{}, goerror.ErrNotFound
	}
	return o, nil
}

func (f *fakeDB) FindCustomer(_ context.Context, id int64) (event.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.customers[id]
	if !ok {
		return event.Customer{}, goerror.ErrNotFound
	}
	return c, nil
}

func (f *fakeDB) CreateSendLog(_ context.Context, log entity.SendLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeDB) sendLogs() []entity.SendLog {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]entity.SendLog(nil), f.logs...)
}

type fakeBus struct {
	mu         sync.Mutex
	published  []event.Event
	subs       map[string]eventbus.Handler
	subscribes int
	subErr     error
}

func (b *fakeBus) Publish(_ context.Context, ev event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, ev)
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ event.Type, group string, fn eventbus.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subErr != nil {
		return b.subErr
	}
	if b.subs == nil {
		b.subs = map[string]eventbus.Handler{}
	}
	b.subs[group] = fn
	b.subscribes++
	return nil
}

func (b *fakeBus) events() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]event.Event(nil), b.published...)
}

type fakeQueue struct {
	jobs []entity.Job
	err  error
}

func (q *fakeQueue) PublishJob(_ context.Context, job entity.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeArchive struct {
	ids []int64
}

func (a *fakeArchive) Archive(_ context.Context, jobID int64, _ entity.EmailDetails) error {
	a.ids = append(a.ids, jobID)
	return nil
}

type fakeTemplates map[string]string

func (f fakeTemplates) LoadTemplate(_ context.Context, handlerType, file string) (string, error) {
	body, ok := f[handlerType+"/"+file]
	if !ok {
		return "", loader.ErrTemplateNotFound
	}
	return body, nil
}

type fakeEnforcer struct {
	allowed map[string]bool
	err     error
}

func (f fakeEnforcer) Enforce(rvals ...any) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[fmt.Sprintf("%v:%v:%v", rvals...)], nil
}

type fakeGuard struct {
	err error
}

func (g fakeGuard) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if g.err != nil {
		return g.err
	}
	return fn(ctx)
}

type seqID struct {
	n atomic.Int64
}

func (s *seqID) Generate() int64 {
	return s.n.Add(1)
}

type outbox struct {
	mu     sync.Mutex
	emails []entity.EmailDetails
}

func (o *outbox) record(e entity.EmailDetails) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.emails = append(o.emails, e)
}

func (o *outbox) sent() []entity.EmailDetails {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]entity.EmailDetails(nil), o.emails...)
}

type fixture struct {
	uc      *Usecase
	db      *fakeDB
	bus     *fakeBus
	outbox  *outbox
	archive *fakeArchive
}

var testTemplates = fakeTemplates{
	"order-confirmation/body.hbs":    "Hi {{ customerName }}, order **{{ order.code }}** is confirmed.",
	"order-confirmation/body.de.hbs": "Hallo {{ customerName }}, Bestellung {{ order.code }} ist bestätigt.",
	"email-verification/body.hbs":    "Verify at {{ verifyEmailAddressUrl }}?token={{ verificationToken }}",
}

func newFixture(t *testing.T, opts ...func(*Dependency)) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	f := &fixture{
		db:      &fakeDB{orders: map[int64]event.Order{}, customers: map[int64]event.Customer{}},
		bus:     &fakeBus{},
		outbox:  &outbox{},
		archive: &fakeArchive{},
	}

	dep := Dependency{
		RepoDB:      f.db,
		RepoArchive: f.archive,
		Templates:   testTemplates,
		Generator:   generator.New(),
		Sender:      sender.New(),
		Transports:  sender.Static(sender.TestingTransport{OnSend: f.outbox.record}),
		Bus:         f.bus,
		Handlers:    defaults.Handlers(),
		Config:      cfg,
		UID:         &seqID{},
		Clock:       clock.Fixed(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)),
		Validator:   v,
		Enforcer: fakeEnforcer{allowed: map[string]bool{
			"42:email:read":            true,
			"42:email:resend":          true,
			"7:email:read":             true,
			"email-support:email:read": true,
		}},
		Instrument: instrument.NewNoop(),
		MailboxDir: t.TempDir(),
	}
	for _, opt := range opts {
		opt(&dep)
	}

	uc, err := NewEmail(dep)
	require.NoError(t, err)
	f.uc = uc

	return f
}

func settledEvent(lang string) event.OrderStateTransitionEvent {
	return event.OrderStateTransitionEvent{
		Base:      event.NewBase(event.RequestContext{ChannelCode: "web", LanguageCode: lang}, time.Now()),
		FromState: defaults.StateArrangingPayment,
		ToState:   defaults.StatePaymentSettled,
		Order: event.Order{
			ID:       7,
			Code:     "ABC123",
			State:    defaults.StatePaymentSettled,
			Customer: &event.Customer{ID: 3, EmailAddress: "ana@example.com", FirstName: "Ana"},
		},
	}
}

func testJob() entity.Job {
	return entity.Job{
		ID:           99,
		Type:         defaults.TypeOrderConfirmation,
		EventType:    event.TypeOrderStateTransition,
		Recipient:    "ana@example.com",
		From:         "shop@example.com",
		Subject:      "Hello {{ name }}",
		TemplateFile: entity.DefaultTemplateFile,
		TemplateVars: valueobject.JSONMap{"name": "Ana", "customerName": "Ana"},
		Context:      event.DefaultRequestContext(),
	}
}

func sendEvents(events []event.Event) []event.EmailSendEvent {
	var out []event.EmailSendEvent
	for _, ev := range events {
		if se, ok := ev.(event.EmailSendEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

func TestNewEmail(t *testing.T) {
	t.Parallel()

	t.Run("DuplicateHandlerType", func(t *testing.T) {
		t.Parallel()

		// Arrange
		dep := Dependency{
			Handlers:   append(defaults.Handlers(), defaults.PasswordReset()),
			Instrument: instrument.NewNoop(),
		}

		// Act
		uc, err := NewEmail(dep)

		// Assert
		require.Error(t, err)
		require.Nil(t, uc)
	})

	t.Run("DefaultsGuardAndTransport", func(t *testing.T) {
		t.Parallel()

		// Act
		uc, err := NewEmail(Dependency{Instrument: instrument.NewNoop()})

		// Assert
		require.NoError(t, err)
		require.Equal(t, idempotency.Noop{}, uc.guard)
		tr, err := uc.transports(t.Context(), event.DefaultRequestContext())
		require.NoError(t, err)
		require.Equal(t, sender.NoneTransport{}, tr)
	})
}

func TestUsecase_Bootstrap(t *testing.T) {
	t.Parallel()

	t.Run("SubscribesOnce", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)

		// Act
		require.NoError(t, f.uc.Bootstrap(t.Context()))
		require.NoError(t, f.uc.Bootstrap(t.Context()))

		// Assert
		require.Equal(t, 5, f.bus.subscribes)
		require.Contains(t, f.bus.subs, "email.order-confirmation")
		require.Contains(t, f.bus.subs, "email.password-reset")
		require.Contains(t, f.bus.subs, resendGroup)
	})

	t.Run("RetriesAfterFailure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		f.bus.subErr = errors.New("broker down")

		// Act
		errFirst := f.uc.Bootstrap(t.Context())
		f.bus.subErr = nil
		errSecond := f.uc.Bootstrap(t.Context())

		// Assert
		require.Error(t, errFirst)
		require.NoError(t, errSecond)
		require.Equal(t, 5, f.bus.subscribes)
	})
}

func TestUsecase_HandleEvent(t *testing.T) {
	t.Parallel()

	t.Run("InlineSendsAndPublishesOutcome", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		require.NoError(t, f.uc.Bootstrap(t.Context()))

		// Act
		err := f.bus.subs["email.order-confirmation"](t.Context(), settledEvent("en"))

		// Assert
		require.NoError(t, err)
		sent := f.outbox.sent()
		require.Len(t, sent, 1)
		require.Equal(t, "Order confirmation for #ABC123", sent[0].Subject)
		require.Equal(t, `"Mailbite" <noreply@shop.test>`, sent[0].From)
		require.Equal(t, "ana@example.com", sent[0].Recipient)
		require.Contains(t, sent[0].Body, "<strong>ABC123</strong>")
		require.Contains(t, sent[0].Text, "Hi Ana")

		logs := f.db.sendLogs()
		require.Len(t, logs, 1)
		require.True(t, logs[0].Success)
		require.Equal(t, int64(1), logs[0].JobID)
		require.Equal(t, "web", logs[0].ChannelCode)

		outcomes := sendEvents(f.bus.events())
		require.Len(t, outcomes, 1)
		require.True(t, outcomes[0].Success)
		require.Equal(t, "Order confirmation for #ABC123", outcomes[0].Details.Subject)
		require.Equal(t, []int64{1}, f.archive.ids)
	})

	t.Run("FilteredEventSendsNothing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		h, ok := f.uc.Handler(defaults.TypeOrderConfirmation)
		require.True(t, ok)
		ev := settledEvent("en")
		ev.ToState = defaults.StateArrangingPayment

		// Act
		err := f.uc.HandleEvent(t.Context(), h, ev)

		// Assert
		require.NoError(t, err)
		require.Empty(t, f.outbox.sent())
		require.Empty(t, f.db.sendLogs())
		require.Empty(t, f.bus.events())
	})

	t.Run("QueuedWhenQueueConfigured", func(t *testing.T) {
		t.Parallel()

		// Arrange
		q := &fakeQueue{}
		f := newFixture(t, func(d *Dependency) { d.RepoQueue = q })
		h, _ := f.uc.Handler(defaults.TypeOrderConfirmation)

		// Act
		err := f.uc.HandleEvent(t.Context(), h, settledEvent("en"))

		// Assert
		require.NoError(t, err)
		require.Len(t, q.jobs, 1)
		require.Equal(t, int64(1), q.jobs[0].ID)
		require.Equal(t, "web", q.jobs[0].Context.ChannelCode)
		require.Empty(t, f.outbox.sent())
	})

	t.Run("QueueFailureIsReturned", func(t *testing.T) {
		t.Parallel()

		// Arrange
		q := &fakeQueue{err: errors.New("queue full")}
		f := newFixture(t, func(d *Dependency) { d.RepoQueue = q })
		h, _ := f.uc.Handler(defaults.TypeOrderConfirmation)

		// Act
		err := f.uc.HandleEvent(t.Context(), h, settledEvent("en"))

		// Assert
		require.EqualError(t, err, "queue full")
	})
}

func TestUsecase_ProcessJob(t *testing.T) {
	t.Parallel()

	t.Run("Delivered", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), testJob())

		// Assert
		require.NoError(t, err)
		require.True(t, ok)
		sent := f.outbox.sent()
		require.Len(t, sent, 1)
		require.Equal(t, "Hello Ana", sent[0].Subject)
	})

	t.Run("MissingTemplatePublishesFailure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		job := testJob()
		job.Type = defaults.TypePasswordReset

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), job)

		// Assert
		require.ErrorIs(t, err, loader.ErrTemplateNotFound)
		require.False(t, ok)
		require.Empty(t, f.outbox.sent())

		outcomes := sendEvents(f.bus.events())
		require.Len(t, outcomes, 1)
		require.False(t, outcomes[0].Success)
		require.NotEmpty(t, outcomes[0].Error)
		require.Equal(t, "Hello {{ name }}", outcomes[0].Details.Subject)

		logs := f.db.sendLogs()
		require.Len(t, logs, 1)
		require.False(t, logs[0].Success)
	})

	t.Run("InvalidJobPublishesFailureAndIsDropped", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t)
		job := testJob()
		job.Recipient = ""

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), job)

		// Assert
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, f.outbox.sent())

		outcomes := sendEvents(f.bus.events())
		require.Len(t, outcomes, 1)
		require.False(t, outcomes[0].Success)
		require.NotEmpty(t, outcomes[0].Error)

		logs := f.db.sendLogs()
		require.Len(t, logs, 1)
		require.False(t, logs[0].Success)
		require.Equal(t, job.ID, logs[0].JobID)
	})

	t.Run("AlreadyCompletedCountsAsSent", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t, func(d *Dependency) { d.Guard = fakeGuard{err: idempotency.ErrAlreadyCompleted} })

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), testJob())

		// Assert
		require.NoError(t, err)
		require.True(t, ok)
		require.Empty(t, f.outbox.sent())
	})

	t.Run("InProgressIsRetried", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t, func(d *Dependency) { d.Guard = fakeGuard{err: idempotency.ErrAlreadyInProgress} })

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), testJob())

		// Assert
		require.ErrorIs(t, err, idempotency.ErrAlreadyInProgress)
		require.False(t, ok)
		require.Empty(t, f.outbox.sent())
	})

	t.Run("GuardDownStillSends", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t, func(d *Dependency) { d.Guard = fakeGuard{err: errors.New("dial tcp: connection refused")} })

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), testJob())

		// Assert
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, f.outbox.sent(), 1)
	})

	t.Run("TransportFailure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		f := newFixture(t, func(d *Dependency) {
			d.Transports = func(context.Context, event.RequestContext) (sender.Transport, error) {
				return nil, sender.ErrUnknownTransport
			}
		})

		// Act
		ok, err := f.uc.ProcessJob(t.Context(), testJob())

		// Assert
		require.ErrorIs(t, err, sender.ErrUnknownTransport)
		require.False(t, ok)
		require.Empty(t, f.archive.ids)
		outcomes := sendEvents(f.bus.events())
		require.Len(t, outcomes, 1)
		require.Equal(t, "Hello Ana", outcomes[0].Details.Subject)
	})
}

func TestUsecase_HandleResendEvent(t *testing.T) {
	t.Parallel()

	wrap := func(t *testing.T, handlerType string, ev event.Event) event.ResendEmailEvent {
		t.Helper()
		inner, err := event.Encode(ev)
		require.NoError(t, err)
		return event.ResendEmailEvent{
			Base:        event.NewBase(ev.Context(), time.Now()),
			HandlerType: handlerType,
			Inner:       inner,
		}
	}

	tests := []struct {
		name        string
		handlerType string
		inner       event.Event
		wantSent    int
	}{
		{name: "RoutesToNamedHandler", handlerType: defaults.TypeOrderConfirmation, inner: settledEvent("en"), wantSent: 1},
		{name: "UnknownHandler", handlerType: "invoice", inner: settledEvent("en"), wantSent: 0},
		{
			name:        "InnerEventOfOtherType",
			handlerType: defaults.TypeOrderConfirmation,
			inner:       event.PasswordResetEvent{Base: event.NewBase(event.DefaultRequestContext(), time.Now())},
			wantSent:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			f := newFixture(t)
			require.NoError(t, f.uc.Bootstrap(t.Context()))

			// Act
			err := f.bus.subs[resendGroup](t.Context(), wrap(t, tt.handlerType, tt.inner))

			// Assert
			require.NoError(t, err)
			require.Len(t, f.outbox.sent(), tt.wantSent)
		})
	}
}
