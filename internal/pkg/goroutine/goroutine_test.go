package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Parallel()

	t.Run("JoinsWorkerErrors", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := NewManager(4)
		boom := errors.New("broker gone")

		// Act
		require.NoError(t, g.Go(t.Context(), "ok", func(context.Context) error { return nil }))
		require.NoError(t, g.Go(t.Context(), "consumer:email", func(context.Context) error { return boom }))
		require.NoError(t, g.Go(t.Context(), "canceled", func(context.Context) error { return context.Canceled }))
		err := g.Wait()

		// Assert
		require.ErrorIs(t, err, boom)
		assert.EqualError(t, err, "consumer:email: broker gone")
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := NewManager(1)

		// Act
		require.NoError(t, g.Go(t.Context(), "bad", func(context.Context) error { panic("nil map") }))
		err := g.Wait()

		// Assert
		assert.EqualError(t, err, "bad: panic: nil map")
	})

	t.Run("LimitReached", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := NewManager(1)
		release := make(chan struct{})
		require.NoError(t, g.Go(t.Context(), "busy", func(context.Context) error {
			<-release
			return nil
		}))

		// Act
		err := g.Go(t.Context(), "extra", func(context.Context) error { return nil })

		// Assert
		require.ErrorIs(t, err, ErrLimitReached)
		close(release)
		require.NoError(t, g.Wait())
	})

	t.Run("ClosedAfterWait", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := NewManager(0)
		require.NoError(t, g.Wait())

		// Act
		err := g.Go(t.Context(), "late", func(context.Context) error { return nil })

		// Assert
		require.ErrorIs(t, err, ErrClosed)
	})
}
