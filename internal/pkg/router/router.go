package router

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/jwt"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
)

// Handler returns a payload for the success envelope or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config // optional in tests
	UUID       uid.StringID
	JWT        jwt.Verifier
	Instrument instrument.Instrumentation
	// PublicEndpoints lists "METHOD /route" entries served without a token.
	PublicEndpoints []string
}

// routeSet holds "METHOD /route" pairs keyed by method.
type routeSet map[string]map[string]struct{}

func (s routeSet) add(method, route string) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if s[method] == nil {
		s[method] = map[string]struct{}{}
	}
	s[method][strings.TrimSpace(route)] = struct{}{}
}

func (s routeSet) has(method, route string) bool {
	_, ok := s[method][route]
	return ok
}

// parseRouteSet reads "METHOD /route" entries. Entries without a method
// are skipped.
func parseRouteSet(entries []string) routeSet {
	s := routeSet{}
	for _, entry := range entries {
		if method, route, ok := strings.Cut(strings.TrimSpace(entry), " "); ok {
			s.add(method, route)
		}
	}
	return s
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the router with the standard middleware chain: panic
// recovery, client IP, correlation id, observability, maintenance and
// bearer authentication, outermost first.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeMessage(w, "endpoint not found", http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeMessage(w, "method not allowed", http.StatusMethodNotAllowed)
		}),
	}
	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeMessage(w, "Welcome to MailBite API", http.StatusOK)
	})

	public := parseRouteSet(cfg.PublicEndpoints)
	public.add(http.MethodGet, "/")
	public.add(http.MethodGet, "/health")

	var proxies []netip.Prefix
	if cfg.Config != nil {
		proxies = parseTrustedProxies(cfg.Config.GetArray("app.server.trusted_proxies"))
	}

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareClientIP(proxies),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, public),
		},
	}
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, r.adapt(h), mws)
}

// GETRaw registers a handler that writes its own response.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, r.adapt(h), mws)
}

func (r *Router) handle(method, path string, h http.Handler, mws []Middleware) {
	chain := append(append([]Middleware{}, r.mws...), mws...)
	r.hr.Handler(method, path, Chain(h, chain...))
}

func (r *Router) adapt(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			// the observability recorder logs it
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
