package messaging

import (
	"context"
	"sync/atomic"
)

// delivery is the Message handed to handlers by every driver. Drivers
// supply ack/nack callbacks bound to the broker-native message.
type delivery struct {
	body    []byte
	headers []Header
	id      string
	topic   string

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (d *delivery) Body() []byte      { return d.body }
func (d *delivery) Headers() []Header { return d.headers }
func (d *delivery) ID() string        { return d.id }
func (d *delivery) Topic() string     { return d.topic }

func (d *delivery) Ack(ctx context.Context) error {
	return d.settle(ctx, d.ack)
}

func (d *delivery) Nack(ctx context.Context) error {
	return d.settle(ctx, d.nack)
}

func (d *delivery) settle(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.responded.Swap(true) || fn == nil {
		return nil
	}
	return fn(ctx)
}

// dispatch runs handler for d and settles the message when autoAck is on
// and the handler did not settle it itself.
func dispatch(ctx context.Context, kind string, d *delivery, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, d)
	})
	if d.responded.Load() || !autoAck {
		return nil
	}
	return respond(ctx, d, herr)
}

func validateConsume(ctx context.Context, source string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}
