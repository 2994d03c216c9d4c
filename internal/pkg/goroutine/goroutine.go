// Package goroutine supervises the long-running background workers of the
// service: message consumers and event subscriptions.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/shandysiswandi/mailbite/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by the CPU count when NewManager
// receives a non-positive limit.
const DefaultMaxGoroutine int = 100

var (
	ErrClosed       = errors.New("goroutine: manager is closed")
	ErrLimitReached = errors.New("goroutine: worker limit reached")
)

// Manager starts named workers up to a fixed limit. A worker that returns
// an error or panics is logged under its name, and its error is reported by
// Wait.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go starts f as the worker name. It does not block: when the manager is
// closed or full it returns ErrClosed or ErrLimitReached and f never runs.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("%w: %s", ErrClosed, name)
	}

	select {
	case g.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "worker not started", "worker", name, "limit", cap(g.slots))
		return fmt.Errorf("%w: %s", ErrLimitReached, name)
	}

	g.wg.Go(func() {
		defer func() { <-g.slots }()
		if err := g.run(ctx, name, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	})

	return nil
}

func (g *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic occurred in worker", "worker", name, "because", rvr, "stack", stacktrace.Internal(0))
			err = fmt.Errorf("panic: %v", rvr)
		}
	}()

	if ctx.Err() != nil {
		slog.WarnContext(ctx, "worker canceled before start", "worker", name, "because", ctx.Err())
		return nil
	}

	if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "worker stopped", "worker", name, "error", err)
		return err
	}
	return nil
}

// Wait refuses new workers, blocks until the running ones return and joins
// their errors.
func (g *Manager) Wait() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
