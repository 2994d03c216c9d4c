package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

// Start serves HTTP in the background. The returned channel closes once a
// termination signal arrives or the server fails to listen.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
			stop()
		}
	}()

	go func() {
		<-sigCtx.Done()
		stop()
		a.cancel()
		slog.Info("shutdown requested")
		close(done)
	}()

	return done
}

// Stop drains HTTP, waits for background workers and closes resources in
// the reverse order they were opened.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background workers finished with errors", "error", err)
	}

	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}
