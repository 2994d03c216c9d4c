// Package defaults holds the built-in email handlers.
package defaults

import (
	"errors"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

const (
	TypeOrderConfirmation  = "order-confirmation"
	TypeEmailVerification  = "email-verification"
	TypePasswordReset      = "password-reset"
	TypeEmailAddressChange = "email-address-change"
)

// Order states the built-in handlers react to.
const (
	StateArrangingPayment   = "ArrangingPayment"
	StatePaymentSettled     = "PaymentSettled"
	StateModifying          = "Modifying"
	StatePartiallyShipped   = "PartiallyShipped"
	StateShipped            = "Shipped"
	StatePartiallyDelivered = "PartiallyDelivered"
	StateDelivered          = "Delivered"
)

var errWrongEntity = errors.New("defaults: unexpected entity")

// fromTemplate is resolved against the "fromAddress" global variable.
const fromTemplate = "{{ fromAddress }}"

// languageArg lets an admin pick the language of a resent email.
var languageArg = entity.ArgDefinition{
	Name:        "languageCode",
	Type:        entity.ArgString,
	Label:       "Language",
	Description: "Language code of the email. Defaults to the shop language.",
}

// Handlers returns every built-in handler.
func Handlers() []handler.Registered {
	return []handler.Registered{
		OrderConfirmation(),
		EmailVerification(),
		PasswordReset(),
		EmailAddressChange(),
	}
}

// resendContext is the request context of an event rebuilt for a resend.
func resendContext(args map[string]any) event.RequestContext {
	rc := event.DefaultRequestContext()
	if lang, ok := args[languageArg.Name].(string); ok && lang != "" {
		rc.LanguageCode = lang
	}
	return rc
}

func mockTime() time.Time {
	return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
}
