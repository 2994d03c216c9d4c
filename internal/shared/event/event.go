// Package event holds the commerce events consumed and published by the
// email service, plus their wire envelope.
package event

import (
	"time"
)

// Type tags an event variant. It is stable across process boundaries.
type Type string

func (t Type) String() string {
	return string(t)
}

const (
	TypeOrderStateTransition    Type = "order-state-transition"
	TypeAccountRegistration     Type = "account-registration"
	TypePasswordReset           Type = "password-reset"
	TypeIdentifierChangeRequest Type = "identifier-change-request"
	TypeEmailSend               Type = "email-send"
	TypeResendEmail             Type = "resend-email"
)

const topicPrefix = "commerce.event."

// TopicFor returns the bus topic events of type t are published on.
func TopicFor(t Type) string {
	return topicPrefix + string(t)
}

// Event is an immutable fact published on the bus.
type Event interface {
	EventType() Type
	Context() RequestContext
	OccurredAt() time.Time
}

// Base carries the fields shared by every event.
type Base struct {
	Ctx RequestContext `json:"ctx"`
	At  time.Time      `json:"occurredAt"`
}

func NewBase(ctx RequestContext, at time.Time) Base {
	return Base{Ctx: ctx, At: at}
}

func (b Base) Context() RequestContext { return b.Ctx }

func (b Base) OccurredAt() time.Time { return b.At }

func (b *Base) setContext(rc RequestContext) { b.Ctx = rc }

// OrderStateTransitionEvent fires when an order moves between states.
type OrderStateTransitionEvent struct {
	Base
	FromState string `json:"fromState"`
	ToState   string `json:"toState"`
	Order     Order  `json:"order"`
}

func (OrderStateTransitionEvent) EventType() Type { return TypeOrderStateTransition }

// AccountRegistrationEvent fires when a customer registers a new account.
type AccountRegistrationEvent struct {
	Base
	User User `json:"user"`
}

func (AccountRegistrationEvent) EventType() Type { return TypeAccountRegistration }

// PasswordResetEvent fires when a password reset token has been issued.
type PasswordResetEvent struct {
	Base
	User User `json:"user"`
}

func (PasswordResetEvent) EventType() Type { return TypePasswordReset }

// IdentifierChangeRequestEvent fires when a user asks to change their
// email address.
type IdentifierChangeRequestEvent struct {
	Base
	User User `json:"user"`
}

func (IdentifierChangeRequestEvent) EventType() Type { return TypeIdentifierChangeRequest }

// EmailSummary is the part of a sent email published with its outcome.
type EmailSummary struct {
	JobID        int64  `json:"jobId"`
	Type         string `json:"type"`
	From         string `json:"from"`
	Recipient    string `json:"recipient"`
	Cc           string `json:"cc,omitempty"`
	Bcc          string `json:"bcc,omitempty"`
	Subject      string `json:"subject"`
	LanguageCode string `json:"languageCode"`
}

// EmailSendEvent reports the outcome of one email delivery.
type EmailSendEvent struct {
	Base
	Details EmailSummary `json:"details"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
}

func (EmailSendEvent) EventType() Type { return TypeEmailSend }

// ResendEmailEvent wraps an event rebuilt from current entity state so it is
// processed by one named handler only.
type ResendEmailEvent struct {
	Base
	HandlerType string   `json:"handlerType"`
	Inner       Envelope `json:"inner"`
}

func (ResendEmailEvent) EventType() Type { return TypeResendEmail }
