// Package stacktrace trims goroutine stacks to this module's own frames for
// panic logs.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 64

// Internal returns the "internal/<pkg>/<file>.go:<line>" frames of the
// calling goroutine, innermost first. skip drops that many frames above the
// caller of Internal. Called from a deferred recover it includes the frames
// that panicked.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		// Standard library internal packages have no "/internal/" in their
		// function name.
		if i := strings.Index(f.File, "/internal/"); i >= 0 && strings.Contains(f.Function, "/internal/") {
			out = append(out, f.File[i+1:]+":"+strconv.Itoa(f.Line))
		}
		if !more {
			return out
		}
	}
}
