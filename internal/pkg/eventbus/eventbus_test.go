package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/mailbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type recorder struct {
	mu     sync.Mutex
	events []event.Event
	cIDs   []string
}

func (r *recorder) handle(ctx context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.cIDs = append(r.cIDs, instrument.GetCorrelationID(ctx))
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestBroker(t *testing.T) (*Broker, context.Context) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	mem := messaging.NewMemory()
	routine := goroutine.NewManager(10)
	t.Cleanup(func() {
		cancel()
		_ = mem.Close()
		_ = routine.Wait()
	})

	return New(mem, routine, fixedID("generated"), instrument.NewNoop(), WithConcurrency(1)), ctx
}

func registration(id int64) event.AccountRegistrationEvent {
	return event.AccountRegistrationEvent{
		Base: event.NewBase(event.DefaultRequestContext(), time.Now().UTC()),
		User: event.User{ID: id, Identifier: "u@example.com"},
	}
}

func TestBroker(t *testing.T) {
	t.Parallel()

	t.Run("EachGroupSeesEveryEvent", func(t *testing.T) {
		t.Parallel()

		// Arrange
		bus, ctx := newTestBroker(t)
		var a, b recorder
		require.NoError(t, bus.Subscribe(ctx, event.TypeAccountRegistration, "email.a", a.handle))
		require.NoError(t, bus.Subscribe(ctx, event.TypeAccountRegistration, "email.b", b.handle))

		// Act
		require.NoError(t, bus.Publish(ctx, registration(1)))
		require.NoError(t, bus.Publish(ctx, registration(2)))

		// Assert
		assert.Eventually(t, func() bool { return a.len() == 2 && b.len() == 2 }, time.Second, 5*time.Millisecond)
		got, ok := a.events[0].(event.AccountRegistrationEvent)
		require.True(t, ok)
		assert.Equal(t, int64(1), got.User.ID)
	})

	t.Run("CorrelationIDPropagates", func(t *testing.T) {
		t.Parallel()

		// Arrange
		bus, ctx := newTestBroker(t)
		var r recorder
		require.NoError(t, bus.Subscribe(ctx, event.TypeAccountRegistration, "email.c", r.handle))

		// Act
		require.NoError(t, bus.Publish(instrument.SetCorrelationID(ctx, "abc"), registration(1)))
		require.NoError(t, bus.Publish(ctx, registration(2)))

		// Assert
		require.Eventually(t, func() bool { return r.len() == 2 }, time.Second, 5*time.Millisecond)
		assert.ElementsMatch(t, []string{"abc", "generated"}, r.cIDs)
	})

	t.Run("HandlerErrorIsNotRedelivered", func(t *testing.T) {
		t.Parallel()

		// Arrange
		bus, ctx := newTestBroker(t)
		var mu sync.Mutex
		calls := 0
		require.NoError(t, bus.Subscribe(ctx, event.TypeAccountRegistration, "email.d", func(context.Context, event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return errors.New("boom")
		}))

		// Act
		require.NoError(t, bus.Publish(ctx, registration(1)))

		// Assert
		require.Eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return calls == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, calls)
	})

	t.Run("SubscribeValidation", func(t *testing.T) {
		t.Parallel()

		// Arrange
		bus, ctx := newTestBroker(t)
		noop := func(context.Context, event.Event) error { return nil }

		// Act
		errUnknown := bus.Subscribe(ctx, "order-cancelled", "g", noop)
		errGroup := bus.Subscribe(ctx, event.TypePasswordReset, "", noop)

		// Assert
		assert.ErrorIs(t, errUnknown, ErrUnknownType)
		assert.ErrorIs(t, errGroup, messaging.ErrGroupRequired)
	})
}
