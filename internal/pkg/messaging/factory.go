package messaging

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Driver names accepted by NewFromDriver.
const (
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
	DriverMemory       = "memory" // in-process, for local runs and tests
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for supported messaging backends. Only the
// options of the selected driver are read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

var drivers = map[string]func(context.Context, FactoryOptions) (Messaging, error){
	DriverNSQ: func(_ context.Context, o FactoryOptions) (Messaging, error) {
		return NewNSQ(o.NSQ)
	},
	DriverNATS: func(_ context.Context, o FactoryOptions) (Messaging, error) {
		return NewNATS(o.NATS)
	},
	DriverKafka: func(_ context.Context, o FactoryOptions) (Messaging, error) {
		return NewKafka(o.Kafka)
	},
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Messaging, error) {
		return NewPubSub(ctx, o.PubSub)
	},
	DriverMemory: func(context.Context, FactoryOptions) (Messaging, error) {
		return NewMemory(), nil
	},
}

// NewFromDriver constructs the Messaging named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	newFn, ok := drivers[strings.TrimSpace(driver)]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver,
			strings.Join(slices.Sorted(maps.Keys(drivers)), ", "))
	}
	return newFn(ctx, opts)
}
