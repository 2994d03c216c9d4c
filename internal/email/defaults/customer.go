package defaults

import (
	"context"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// EmailVerification asks a newly registered customer to verify their email
// address.
func EmailVerification() *handler.Handler[event.AccountRegistrationEvent, event.AccountRegistrationEvent] {
	return handler.New[event.AccountRegistrationEvent](TypeEmailVerification, event.TypeAccountRegistration,
		"Sent to a new customer to verify their email address").
		Filter(func(e event.AccountRegistrationEvent) bool {
			return !e.User.Verified && e.User.VerificationToken != ""
		}).
		SetRecipient(func(e event.AccountRegistrationEvent) string { return e.User.Identifier }).
		SetFrom(fromTemplate).
		SetSubject("Please verify your email address").
		SetTemplateVars(func(e event.AccountRegistrationEvent, globals map[string]any) map[string]any {
			return map[string]any{
				"verifyEmailAddressUrl": globals["verifyEmailAddressUrl"],
				"verificationToken":     e.User.VerificationToken,
			}
		}).
		SetResendOptions(customerResend(
			"Resend email verification",
			"Sends the verification email again while the account is unverified",
			func(u *event.User) bool { return !u.Verified && u.VerificationToken != "" },
			func(base event.Base, u event.User) event.AccountRegistrationEvent {
				return event.AccountRegistrationEvent{Base: base, User: u}
			},
		)).
		SetMockEvent(event.AccountRegistrationEvent{
			Base: event.NewBase(event.DefaultRequestContext(), mockTime()),
			User: event.User{ID: -1, Identifier: "jane.doe@example.com", VerificationToken: "MOCK_VERIFICATION_TOKEN"},
		})
}

// PasswordReset sends the password reset link.
func PasswordReset() *handler.Handler[event.PasswordResetEvent, event.PasswordResetEvent] {
	return handler.New[event.PasswordResetEvent](TypePasswordReset, event.TypePasswordReset,
		"Sent when a customer requests a password reset").
		SetRecipient(func(e event.PasswordResetEvent) string { return e.User.Identifier }).
		SetFrom(fromTemplate).
		SetSubject("Forgotten password reset").
		SetTemplateVars(func(e event.PasswordResetEvent, globals map[string]any) map[string]any {
			return map[string]any{
				"passwordResetUrl":   globals["passwordResetUrl"],
				"passwordResetToken": e.User.PasswordResetToken,
			}
		}).
		SetResendOptions(customerResend(
			"Resend password reset",
			"Sends the password reset email again while a reset is pending",
			func(u *event.User) bool { return u.PasswordResetToken != "" },
			func(base event.Base, u event.User) event.PasswordResetEvent {
				return event.PasswordResetEvent{Base: base, User: u}
			},
		)).
		SetMockEvent(event.PasswordResetEvent{
			Base: event.NewBase(event.DefaultRequestContext(), mockTime()),
			User: event.User{ID: -1, Identifier: "jane.doe@example.com", Verified: true, PasswordResetToken: "MOCK_RESET_TOKEN"},
		})
}

// EmailAddressChange asks the customer to confirm a new email address. It
// goes to the pending address, not the current one.
func EmailAddressChange() *handler.Handler[event.IdentifierChangeRequestEvent, event.IdentifierChangeRequestEvent] {
	return handler.New[event.IdentifierChangeRequestEvent](TypeEmailAddressChange, event.TypeIdentifierChangeRequest,
		"Sent to the new address when a customer changes their email address").
		Filter(func(e event.IdentifierChangeRequestEvent) bool { return e.User.PendingIdentifier != "" }).
		SetRecipient(func(e event.IdentifierChangeRequestEvent) string { return e.User.PendingIdentifier }).
		SetFrom(fromTemplate).
		SetSubject("Please verify your change of email address").
		SetTemplateVars(func(e event.IdentifierChangeRequestEvent, globals map[string]any) map[string]any {
			return map[string]any{
				"changeEmailAddressUrl": globals["changeEmailAddressUrl"],
				"identifierChangeToken": e.User.IdentifierToken,
			}
		}).
		SetResendOptions(customerResend(
			"Resend email address change",
			"Sends the address change confirmation again while a change is pending",
			func(u *event.User) bool { return u.PendingIdentifier != "" && u.IdentifierToken != "" },
			func(base event.Base, u event.User) event.IdentifierChangeRequestEvent {
				return event.IdentifierChangeRequestEvent{Base: base, User: u}
			},
		)).
		SetMockEvent(event.IdentifierChangeRequestEvent{
			Base: event.NewBase(event.DefaultRequestContext(), mockTime()),
			User: event.User{
				ID:                -1,
				Identifier:        "jane.doe@example.com",
				Verified:          true,
				PendingIdentifier: "jane@example.org",
				IdentifierToken:   "MOCK_CHANGE_TOKEN",
			},
		})
}

// customerResend builds resend options for handlers driven by the user
// behind a customer.
func customerResend[E event.Event](
	label, description string,
	pending func(u *event.User) bool,
	build func(base event.Base, u event.User) E,
) handler.ResendOptions[E] {
	return handler.ResendOptions[E]{
		EntityType:  entity.KindCustomer,
		Label:       label,
		Description: description,
		Args:        []entity.ArgDefinition{languageArg},
		CanResend: func(_ context.Context, _ handler.Injector, ent event.Entity) (bool, error) {
			c, ok := ent.(event.Customer)
			return ok && c.User != nil && pending(c.User), nil
		},
		CreateEvent: func(_ context.Context, _ handler.Injector, ent event.Entity, args map[string]any) (E, error) {
			c, ok := ent.(event.Customer)
			if !ok || c.User == nil {
				var zero E
				return zero, errWrongEntity
			}
			return build(event.NewBase(resendContext(args), time.Now()), *c.User), nil
		},
	}
}
