package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// validCorrelationID accepts visible ASCII without spaces, so the value is
// safe to echo in headers and message metadata.
func validCorrelationID(v string) bool {
	if v == "" || len(v) > maxCorrelationIDLen {
		return false
	}
	return strings.IndexFunc(v, func(r rune) bool { return r <= ' ' || r > '~' }) < 0
}

// middlewareCorrelationID reuses the caller's correlation ID or request ID
// when valid, otherwise generates one. The ID is echoed in the response and
// carried in the request context, from where logs and published events
// pick it up.
func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := ""
			for _, h := range []string{HeaderCorrelationID, HeaderRequestID} {
				if v := strings.TrimSpace(r.Header.Get(h)); validCorrelationID(v) {
					cid = v
					break
				}
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}
			next.ServeHTTP(w, r)
		})
	}
}
