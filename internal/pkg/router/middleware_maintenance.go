package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// "app.maintenance.endpoints". An entry is either a route, which blocks
// every method, or "METHOD /route". "app.maintenance.retry_after_seconds"
// sets Retry-After when positive.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := map[string]struct{}{}
	retryAfter := 0
	if cfg != nil {
		for _, e := range cfg.GetArray("app.maintenance.endpoints") {
			if e = strings.Join(strings.Fields(e), " "); e != "" {
				if method, route, ok := strings.Cut(e, " "); ok {
					e = strings.ToUpper(method) + " " + route
				}
				blocked[e] = struct{}{}
			}
		}
		retryAfter = cfg.GetInt("app.maintenance.retry_after_seconds")
	}

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, all := blocked[route]
			_, one := blocked[r.Method+" "+route]
			if !all && !one {
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeMessage(w, "service is under maintenance", http.StatusServiceUnavailable)
		})
	}
}
