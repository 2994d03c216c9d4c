package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/mailbite/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 response. An
// http.ErrAbortHandler panic is re-raised for net/http to handle.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // this must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			if paths := stacktrace.Internal(0); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic on the server trace debug", "because", rvr, "stack", string(debug.Stack()))
			}

			writeMessage(w, "Internal server error", http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
