package defaults

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/generator"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInjector struct {
	orders map[int64]event.Order
	err    error
}

func (f fakeInjector) FindOrder(_ context.Context, id int64) (event.Order, error) {
	if f.err != nil {
		return event.Order{}, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return event.Order{}, goerror.ErrNotFound
	}
	return o, nil
}

func (f fakeInjector) FindCustomer(context.Context, int64) (event.Customer, error) {
	return event.Customer{}, goerror.ErrNotFound
}

var globals = map[string]any{
	"fromAddress":           `"Mailbite" <noreply@shop.test>`,
	"verifyEmailAddressUrl": "https://shop.test/verify",
}

func settledEvent(from, to string) event.OrderStateTransitionEvent {
	return event.OrderStateTransitionEvent{
		Base:      event.NewBase(event.RequestContext{ChannelCode: "web", LanguageCode: "en"}, time.Now()),
		FromState: from,
		ToState:   to,
		Order: event.Order{
			ID:       7,
			Code:     "ABC123",
			Customer: &event.Customer{ID: 3, EmailAddress: "ana@example.com", FirstName: "Ana"},
		},
	}
}

func TestOrderConfirmation(t *testing.T) {
	t.Parallel()

	t.Run("PaymentSettledProducesJob", func(t *testing.T) {
		t.Parallel()

		// Arrange
		h := OrderConfirmation()

		// Act
		job, err := h.Handle(t.Context(), settledEvent(StateArrangingPayment, StatePaymentSettled), globals, fakeInjector{})
		require.NoError(t, err)
		require.NotNil(t, job)
		email, err := generator.New().Generate(t.Context(), job.From, job.Subject, "x", job.TemplateVars)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Order confirmation for #ABC123", email.Subject)
		assert.Equal(t, "ana@example.com", job.Recipient)
		assert.Equal(t, `"Mailbite" <noreply@shop.test>`, email.From)
		assert.Equal(t, entity.DefaultTemplateFile, job.TemplateFile)
	})

	t.Run("OtherTransitionsProduceNoJob", func(t *testing.T) {
		t.Parallel()

		noCustomer := settledEvent(StateArrangingPayment, StatePaymentSettled)
		noCustomer.Order.Customer = nil

		for name, ev := range map[string]event.OrderStateTransitionEvent{
			"ArrangingPayment": settledEvent("AddingItems", StateArrangingPayment),
			"FromModifying":    settledEvent(StateModifying, StatePaymentSettled),
			"NoCustomer":       noCustomer,
		} {
			job, err := OrderConfirmation().Handle(t.Context(), ev, globals, fakeInjector{})
			require.NoError(t, err, name)
			assert.Nil(t, job, name)
		}
	})

	t.Run("UsesStoredOrder", func(t *testing.T) {
		t.Parallel()

		// Arrange
		stored := event.Order{ID: 7, Code: "ABC123", Lines: []event.OrderLine{{Quantity: 2}, {Quantity: 3}}}
		inj := fakeInjector{orders: map[int64]event.Order{7: stored}}

		// Act
		job, err := OrderConfirmation().Handle(t.Context(), settledEvent(StateArrangingPayment, StatePaymentSettled), globals, inj)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, 5, job.TemplateVars["totalQuantity"])
		assert.Equal(t, "ana@example.com", job.Recipient)
		assert.Equal(t, "Ana", job.TemplateVars["customerName"])
	})

	t.Run("StoreFailureSuppressesEmail", func(t *testing.T) {
		t.Parallel()

		// Act
		job, err := OrderConfirmation().Handle(t.Context(), settledEvent(StateArrangingPayment, StatePaymentSettled), globals,
			fakeInjector{err: errors.New("connection refused")})

		// Assert
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("GermanTemplate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ev := settledEvent(StateArrangingPayment, StatePaymentSettled)
		ev.Ctx.LanguageCode = "de"

		// Act
		job, err := OrderConfirmation().Handle(t.Context(), ev, globals, fakeInjector{})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "body.de.hbs", job.TemplateFile)
	})

	t.Run("Resend", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := OrderConfirmation().Resend()
		require.NotNil(t, r)
		order := event.Order{ID: 7, State: StateShipped, Customer: &event.Customer{EmailAddress: "ana@example.com"}}

		// Act
		can, err := r.Check(t.Context(), fakeInjector{}, order)
		require.NoError(t, err)
		cannot, err := r.Check(t.Context(), fakeInjector{}, event.Order{ID: 8, State: "AddingItems"})
		require.NoError(t, err)
		ev, err := r.Build(t.Context(), fakeInjector{}, order, []entity.Arg{{Name: "languageCode", Value: "de"}})

		// Assert
		require.NoError(t, err)
		assert.True(t, can)
		assert.False(t, cannot)
		assert.Equal(t, entity.KindOrder, r.Kind())
		assert.Equal(t, "de", ev.Context().LanguageCode)
		job, err := OrderConfirmation().Handle(t.Context(), ev, globals, fakeInjector{})
		require.NoError(t, err)
		assert.NotNil(t, job)
	})
}

func TestCustomerHandlers(t *testing.T) {
	t.Parallel()

	t.Run("VerificationSkipsVerifiedUsers", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ev := event.AccountRegistrationEvent{User: event.User{Identifier: "ana@example.com", Verified: true, VerificationToken: "t"}}

		// Act
		job, err := EmailVerification().Handle(t.Context(), ev, globals, fakeInjector{})

		// Assert
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("VerificationVars", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ev := event.AccountRegistrationEvent{User: event.User{Identifier: "ana@example.com", VerificationToken: "t0k"}}

		// Act
		job, err := EmailVerification().Handle(t.Context(), ev, globals, fakeInjector{})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "ana@example.com", job.Recipient)
		assert.Equal(t, "t0k", job.TemplateVars["verificationToken"])
		assert.Equal(t, "https://shop.test/verify", job.TemplateVars["verifyEmailAddressUrl"])
		assert.Equal(t, event.DefaultChannelCode, job.Context.ChannelCode)
	})

	t.Run("AddressChangeGoesToPendingAddress", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ev := event.IdentifierChangeRequestEvent{User: event.User{Identifier: "old@example.com", PendingIdentifier: "new@example.com", IdentifierToken: "c"}}

		// Act
		job, err := EmailAddressChange().Handle(t.Context(), ev, globals, fakeInjector{})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "new@example.com", job.Recipient)
	})

	t.Run("ResendChecksCurrentState", func(t *testing.T) {
		t.Parallel()

		// Arrange
		r := PasswordReset().Resend()
		pending := event.Customer{ID: 1, User: &event.User{ID: 2, PasswordResetToken: "r"}}
		done := event.Customer{ID: 1, User: &event.User{ID: 2}}

		// Act
		canPending, err := r.Check(t.Context(), fakeInjector{}, pending)
		require.NoError(t, err)
		canDone, err := r.Check(t.Context(), fakeInjector{}, done)
		require.NoError(t, err)
		canOrder, err := r.Check(t.Context(), fakeInjector{}, event.Order{})
		require.NoError(t, err)
		_, buildErr := r.Build(t.Context(), fakeInjector{}, event.Customer{ID: 1}, nil)

		// Assert
		assert.True(t, canPending)
		assert.False(t, canDone)
		assert.False(t, canOrder)
		assert.ErrorIs(t, buildErr, errWrongEntity)
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, h := range Handlers() {
		assert.False(t, seen[h.Type()], "duplicate handler %s", h.Type())
		seen[h.Type()] = true

		mock, ok := h.MockEvent()
		require.True(t, ok, h.Type())
		assert.Equal(t, h.EventType(), mock.EventType())

		job, err := h.Handle(t.Context(), mock, globals, fakeInjector{})
		require.NoError(t, err, h.Type())
		assert.NotNil(t, job, h.Type())
		assert.NotNil(t, h.Resend(), h.Type())
	}
	assert.Len(t, seen, 4)
}
