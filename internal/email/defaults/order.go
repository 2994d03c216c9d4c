package defaults

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
	"github.com/shandysiswandi/mailbite/internal/email/handler"
	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

type (
	orderEvent  = event.OrderStateTransitionEvent
	loadedOrder = handler.Loaded[orderEvent, event.Order]
)

var placedStates = map[string]bool{
	StatePaymentSettled:     true,
	StatePartiallyShipped:   true,
	StateShipped:            true,
	StatePartiallyDelivered: true,
	StateDelivered:          true,
}

// OrderConfirmation emails the customer once payment for an order settles.
// The order is reloaded so the email shows its current lines and totals.
func OrderConfirmation() *handler.Handler[orderEvent, loadedOrder] {
	base := handler.New[orderEvent](TypeOrderConfirmation, event.TypeOrderStateTransition,
		"Sent to the customer when payment for an order has settled").
		Filter(func(e orderEvent) bool {
			return e.ToState == StatePaymentSettled &&
				e.FromState != StateModifying &&
				e.Order.Customer != nil
		}).
		SetFrom(fromTemplate).
		SetSubject("Order confirmation for #{{ order.code }}").
		AddTemplate(handler.TemplateConfig{
			ChannelCode:  handler.DefaultCode,
			LanguageCode: "de",
			TemplateFile: "body.de.hbs",
			Subject:      "Bestellbestätigung für #{{ order.code }}",
		}).
		SetResendOptions(handler.ResendOptions[orderEvent]{
			EntityType:  entity.KindOrder,
			Label:       "Resend order confirmation",
			Description: "Sends the order confirmation to the customer again",
			Args:        []entity.ArgDefinition{languageArg},
			CanResend: func(_ context.Context, _ handler.Injector, ent event.Entity) (bool, error) {
				o, ok := ent.(event.Order)
				return ok && o.Customer != nil && placedStates[o.State], nil
			},
			CreateEvent: func(_ context.Context, _ handler.Injector, ent event.Entity, args map[string]any) (orderEvent, error) {
				o, ok := ent.(event.Order)
				if !ok {
					return orderEvent{}, errWrongEntity
				}
				return orderEvent{
					Base:      event.NewBase(resendContext(args), time.Now()),
					FromState: StateArrangingPayment,
					ToState:   StatePaymentSettled,
					Order:     o,
				}, nil
			},
		}).
		SetMockEvent(mockOrderEvent())

	return handler.LoadData(base, loadOrder).
		SetRecipient(func(l loadedOrder) string {
			return l.Data.Customer.EmailAddress
		}).
		SetTemplateVars(func(l loadedOrder, _ map[string]any) map[string]any {
			return map[string]any{
				"order":         l.Data,
				"customerName":  l.Data.Customer.FullName(),
				"totalQuantity": l.Data.TotalQuantity(),
			}
		})
}

// loadOrder prefers the stored order. Orders the store does not know, such
// as preview fixtures, are used as carried by the event.
func loadOrder(ctx context.Context, e orderEvent, inj handler.Injector) (event.Order, error) {
	o, err := inj.FindOrder(ctx, e.Order.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return e.Order, nil
	}
	if err != nil {
		return event.Order{}, err
	}
	if o.Customer == nil {
		o.Customer = e.Order.Customer
	}
	return o, nil
}

func mockOrderEvent() orderEvent {
	placed := mockTime()
	return orderEvent{
		Base:      event.NewBase(event.DefaultRequestContext(), placed),
		FromState: StateArrangingPayment,
		ToState:   StatePaymentSettled,
		Order: event.Order{
			ID:    -1,
			Code:  "T_DEMO0001",
			State: StatePaymentSettled,
			Customer: &event.Customer{
				ID:           -1,
				EmailAddress: "jane.doe@example.com",
				FirstName:    "Jane",
				LastName:     "Doe",
			},
			Lines: []event.OrderLine{
				{ID: 1, ProductName: "Espresso cup set", SKU: "CUP-2", Quantity: 2, UnitPrice: 1450},
				{ID: 2, ProductName: "Coffee beans 1kg", SKU: "BEAN-1K", Quantity: 1, UnitPrice: 2199},
			},
			SubTotal:     5099,
			Shipping:     495,
			Total:        5594,
			CurrencyCode: "EUR",
			PlacedAt:     &placed,
		},
	}
}
