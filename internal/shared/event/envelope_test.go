package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("OrderStateTransitionKeepsConcreteType", func(t *testing.T) {
		t.Parallel()

		// Arrange
		in := OrderStateTransitionEvent{
			Base:      NewBase(RequestContext{ChannelCode: "eu", LanguageCode: "de"}, at),
			FromState: "ArrangingPayment",
			ToState:   "PaymentSettled",
			Order:     Order{ID: 7, Code: "A1B2", Customer: &Customer{ID: 3, EmailAddress: "c@example.com"}},
		}

		// Act
		data, err := Marshal(in)
		require.NoError(t, err)
		out, err := Unmarshal(data)

		// Assert
		require.NoError(t, err)
		got, ok := out.(OrderStateTransitionEvent)
		require.True(t, ok)
		assert.Equal(t, in, got)
		assert.Equal(t, "de", got.Context().LanguageCode)
	})

	t.Run("ResendWrapsInnerEnvelope", func(t *testing.T) {
		t.Parallel()

		// Arrange
		inner, err := Encode(PasswordResetEvent{Base: NewBase(DefaultRequestContext(), at), User: User{ID: 1}})
		require.NoError(t, err)
		wrapped := ResendEmailEvent{Base: NewBase(DefaultRequestContext(), at), HandlerType: "password-reset", Inner: inner}

		// Act
		env, err := Encode(wrapped)
		require.NoError(t, err)
		out, err := Decode(env)
		require.NoError(t, err)
		innerEv, err := Decode(out.(ResendEmailEvent).Inner)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, TypePasswordReset, innerEv.EventType())
	})

	t.Run("UnknownType", func(t *testing.T) {
		t.Parallel()

		// Arrange
		env := Envelope{Type: "order-cancelled", Payload: json.RawMessage(`{}`)}

		// Act
		_, err := Decode(env)

		// Assert
		assert.ErrorIs(t, err, ErrUnknownEventType)
	})
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	// Arrange
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := PasswordResetEvent{Base: NewBase(DefaultRequestContext(), at), User: User{ID: 1, PasswordResetToken: "tok"}}
	rc := RequestContext{ChannelCode: "eu", LanguageCode: "de", APIType: APITypeShop}

	// Act
	out, err := WithContext(in, rc)

	// Assert
	require.NoError(t, err)
	got, ok := out.(PasswordResetEvent)
	require.True(t, ok)
	assert.Equal(t, rc, got.Context())
	assert.Equal(t, in.User, got.User)
	assert.Equal(t, at, got.OccurredAt())
	assert.Equal(t, DefaultLanguageCode, in.Context().LanguageCode)
}

func TestTopicFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "commerce.event.order-state-transition", TopicFor(TypeOrderStateTransition))
}

func TestRequestContext_Normalize(t *testing.T) {
	t.Parallel()

	got := RequestContext{}.Normalize()
	assert.Equal(t, DefaultChannelCode, got.ChannelCode)
	assert.Equal(t, DefaultLanguageCode, got.LanguageCode)
}

func TestCustomer_FullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ada Lovelace", Customer{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Customer{FirstName: "Ada"}.FullName())
}
