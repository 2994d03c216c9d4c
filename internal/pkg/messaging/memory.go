package messaging

import (
	"context"
	"errors"
	"io"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	memoryQueueSize       = 1024
	memoryMaxRedeliveries = 3
)

// ErrMemoryQueueFull is returned when a consumer group has too many pending messages.
var ErrMemoryQueueFull = errors.New("pkgmessage: memory queue is full")

// Memory is an in-process messaging implementation.
//
// Every consume group on a topic receives each message once, and consumers
// in the same group compete for messages. Messages published to a topic
// that has no group yet are held and handed to the first group that
// subscribes. A nacked message is redelivered up to memoryMaxRedeliveries
// times.
type Memory struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
	closed bool
	done   chan struct{}

	seq atomic.Uint64
}

type memoryTopic struct {
	groups  map[string]chan memoryMessage
	backlog []memoryMessage
}

type memoryMessage struct {
	id       string
	body     []byte
	headers  []Header
	attempts int
}

// NewMemory constructs an in-process messaging client.
func NewMemory() *Memory {
	return &Memory{
		topics: map[string]*memoryTopic{},
		done:   make(chan struct{}),
	}
}

// Close stops all consumers. Pending messages are discarded.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans the message out to every group subscribed to destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	mm := memoryMessage{
		id:      strconv.FormatUint(m.seq.Add(1), 10),
		body:    slices.Clone(msg.Body),
		headers: slices.Clone(msg.Headers),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	t := m.topic(destination)
	if len(t.groups) == 0 {
		t.backlog = append(t.backlog, mm)
	}
	for _, ch := range t.groups {
		select {
		case ch <- mm:
		default:
			return PublishResult{}, ErrMemoryQueueFull
		}
	}

	return PublishResult{MessageID: mm.id, Topic: destination, Timestamp: time.Now()}, nil
}

// Consume processes messages for the consume group until ctx is done or the
// client is closed. An empty group behaves like its own unnamed group.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	ch, err := m.join(source, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range concurrencyOrDefault(co.concurrency, 1) {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case mm := <-ch:
					//nolint:errcheck // settle never fails in memory
					_ = dispatch(ctx, "memory", m.delivery(source, ch, mm), handler, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	select {
	case <-m.done:
		return nil
	default:
		return ctx.Err()
	}
}

// Declare registers the consume group on topic ahead of Consume, so
// messages published in between are kept for it.
func (m *Memory) Declare(_ context.Context, topic, group string) error {
	if topic == "" {
		return ErrDestinationRequired
	}
	_, err := m.join(topic, group)
	return err
}

func (m *Memory) join(topic, group string) (chan memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}

	t := m.topic(topic)
	if ch, ok := t.groups[group]; ok {
		return ch, nil
	}

	ch := make(chan memoryMessage, memoryQueueSize)
	if len(t.groups) == 0 {
		for _, mm := range t.backlog {
			select {
			case ch <- mm:
			default:
			}
		}
		t.backlog = nil
	}
	t.groups[group] = ch
	return ch, nil
}

func (m *Memory) topic(name string) *memoryTopic {
	t, ok := m.topics[name]
	if !ok {
		t = &memoryTopic{groups: map[string]chan memoryMessage{}}
		m.topics[name] = t
	}
	return t
}

func (m *Memory) delivery(topic string, ch chan memoryMessage, mm memoryMessage) *delivery {
	return &delivery{
		body:    mm.body,
		headers: mm.headers,
		id:      mm.id,
		topic:   topic,
		nack: func(context.Context) error {
			if mm.attempts >= memoryMaxRedeliveries {
				return nil
			}
			mm.attempts++
			go func() {
				select {
				case ch <- mm:
				case <-m.done:
				}
			}()
			return nil
		},
	}
}
