package app

import (
	"context"
	"net/http"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/jwt"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/pkg/router"
	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"github.com/shandysiswandi/mailbite/internal/pkg/validator"
)

const defaultShutdownTimeout = 10 * time.Second

// closer releases one resource on shutdown.
type closer struct {
	name string
	fn   func(context.Context) error
}

// App owns the process lifecycle: it connects every resource named in the
// config, mounts the email module and tears everything down in reverse.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	config config.Config
	ins    instrument.Instrumentation

	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.Verifier

	dbConn    *pgxpool.Pool
	cacheConn *redis.Client // nil without redis.url
	messaging messaging.Messaging
	storage   storage.Storage // nil without storage.driver
	casbin    *casbin.Enforcer

	router     *router.Router
	httpServer *http.Server

	// closed last-registered first
	closers []closer
}

// New builds the application. Any wiring failure is fatal.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{ctx: ctx, cancel: cancel}

	for _, step := range []func(){
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initJWT,
		a.initDatabase,
		a.initCache,
		a.initStorage,
		a.initMessaging,
		a.initCasbin,
		a.initHTTPServer,
		a.initModules,
	} {
		step()
	}

	return a
}

// ShutdownTimeout bounds Stop, from app.shutdown_timeout_seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if d := a.config.GetSecond("app.shutdown_timeout_seconds"); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
