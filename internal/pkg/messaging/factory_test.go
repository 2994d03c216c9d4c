package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriver(t *testing.T) {
	t.Parallel()

	m, err := NewFromDriver(t.Context(), DriverMemory, FactoryOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	assert.IsType(t, &Memory{}, m)

	_, err = NewFromDriver(t.Context(), "rabbitmq", FactoryOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)
	assert.Contains(t, err.Error(), "google-pubsub, kafka, memory, nats, nsq")

	_, err = NewFromDriver(t.Context(), DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)
}
