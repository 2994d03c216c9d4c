package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when a publish or consume call has no topic/subject.
	ErrDestinationRequired = errors.New("pkgmessage: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("pkgmessage: handler is required")
	// ErrGroupRequired is returned when a driver needs a consumer group and none was given.
	ErrGroupRequired = errors.New("pkgmessage: consumer group is required")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source. Consume blocks until ctx is done
// or the underlying subscription fails.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Declarer is implemented by drivers that can register a consume group
// before consuming starts.
type Declarer interface {
	Declare(ctx context.Context, topic, group string) error
}

// Handler processes a received message.
//
// With auto-ack enabled a nil error acks the message and a non-nil error
// nacks it, which asks the broker for redelivery where supported.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning.
	Key     []byte
	Headers []Header
}

// Header is a key/value pair carried alongside the body.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries broker publish metadata, when exposed.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	Body() []byte
	Headers() []Header
	ID() string
	Topic() string

	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
	// Nack requests redelivery when the broker supports it.
	Nack(ctx context.Context) error
}
