package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mailbite/internal/email/attachment"
	"github.com/shandysiswandi/mailbite/internal/email/defaults"
	"github.com/shandysiswandi/mailbite/internal/email/generator"
	"github.com/shandysiswandi/mailbite/internal/email/inbound"
	"github.com/shandysiswandi/mailbite/internal/email/loader"
	"github.com/shandysiswandi/mailbite/internal/email/outbound/archive"
	"github.com/shandysiswandi/mailbite/internal/email/outbound/db"
	"github.com/shandysiswandi/mailbite/internal/email/outbound/queue"
	"github.com/shandysiswandi/mailbite/internal/email/sender"
	"github.com/shandysiswandi/mailbite/internal/email/usecase"
	"github.com/shandysiswandi/mailbite/internal/pkg/clock"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/eventbus"
	"github.com/shandysiswandi/mailbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/mailbite/internal/pkg/idempotency"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"github.com/shandysiswandi/mailbite/internal/pkg/messaging"
	"github.com/shandysiswandi/mailbite/internal/pkg/router"
	"github.com/shandysiswandi/mailbite/internal/pkg/storage"
	"github.com/shandysiswandi/mailbite/internal/pkg/uid"
	"github.com/shandysiswandi/mailbite/internal/pkg/validator"
)

const (
	templatesFromDir     = "dir"
	templatesFromStorage = "storage"

	idempotencyPrefix = "mailbite:email:job:"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	// CacheConn enables the redelivery guard of queued jobs. Without it a
	// redelivered job may be sent twice.
	CacheConn *redis.Client
	// Storage serves object storage templates, attachment paths and the
	// sent-mail archive. It may be nil when none of them is configured.
	Storage storage.Storage
}

// New wires the email module and returns the sender so the caller can
// release its provider connections on shutdown.
func New(dep Dependency) (io.Closer, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	ctx := dep.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := dep.Config

	templates, err := newTemplateLoader(cfg, dep.Storage)
	if err != nil {
		return nil, err
	}

	partials, err := templates.LoadPartials(ctx)
	if err != nil {
		return nil, fmt.Errorf("email: load partials: %w", err)
	}

	layouts, err := templates.LoadLayouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("email: load layouts: %w", err)
	}

	transports, mailboxDir, err := newTransportResolver(cfg)
	if err != nil {
		return nil, err
	}

	snd := sender.New(
		sender.WithClock(dep.Clock),
		sender.WithAttachmentResolver(attachment.Resolver{
			HTTP:    &http.Client{Timeout: cfg.GetSecond("modules.email.attachment.http_timeout_seconds")},
			Storage: dep.Storage,
			MaxSize: cfg.GetInt64("modules.email.attachment.max_size_bytes"),
		}),
	)

	ucDep := usecase.Dependency{
		RepoDB:    db.NewDB(dep.DBConn, dep.Instrument),
		Templates: templates,
		Generator: generator.New(
			generator.WithPartials(partials),
			generator.WithLayouts(layouts),
			generator.WithTextWidth(cfg.GetInt("modules.email.text_width")),
			generator.WithStructAccess(cfg.GetBool("modules.email.allow_struct_access")),
		),
		Sender:     snd,
		Transports: transports,
		Bus: eventbus.New(dep.Messaging, dep.Goroutine, dep.UUID, dep.Instrument,
			eventbus.WithConcurrency(cfg.GetInt("modules.email.bus.concurrency")),
		),
		Guard:      idempotency.Noop{},
		Codec:      attachment.Codec{WarnThreshold: cfg.GetInt("modules.email.attachment.warn_threshold_bytes")},
		Handlers:   defaults.Handlers(),
		Config:     cfg,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Enforcer:   dep.Enforcer,
		Instrument: dep.Instrument,
		MailboxDir: mailboxDir,
	}

	queueEnabled := cfg.GetBool("modules.email.queue.enabled")
	if queueEnabled {
		ucDep.RepoQueue = queue.New(dep.Messaging, dep.Instrument)
	}
	if dep.CacheConn != nil {
		ucDep.Guard = idempotency.New(dep.CacheConn, idempotencyPrefix)
	}
	if cfg.GetBool("modules.email.archive.enabled") {
		if dep.Storage == nil {
			return nil, errors.New("email: archive requires a storage driver")
		}
		ucDep.RepoArchive = archive.New(dep.Storage,
			cfg.GetString("modules.email.archive.bucket"),
			cfg.GetString("modules.email.archive.prefix"),
			dep.Clock, dep.Instrument,
		)
	}

	uc, err := usecase.NewEmail(ucDep)
	if err != nil {
		return nil, err
	}

	if err := uc.Bootstrap(ctx); err != nil {
		return nil, err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, cfg.GetBool("modules.email.dev_mailbox.enabled"))
	if queueEnabled {
		inbound.RegisterMQConsumer(ctx, cfg, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return snd, nil
}

func newTemplateLoader(cfg config.Config, store storage.Storage) (loader.Loader, error) {
	source := strings.ToLower(strings.TrimSpace(cfg.GetString("modules.email.templates.source")))
	switch source {
	case templatesFromDir, "":
		dir := cfg.GetString("modules.email.templates.dir")
		if dir == "" {
			dir = "./templates"
		}
		return loader.NewDir(dir), nil
	case templatesFromStorage:
		if store == nil {
			return nil, fmt.Errorf("email: templates source %q requires a storage driver", source)
		}
		return loader.NewStorage(store,
			cfg.GetString("modules.email.templates.bucket"),
			cfg.GetString("modules.email.templates.prefix"),
		), nil
	default:
		return nil, fmt.Errorf("email: unknown templates source %q", source)
	}
}

// newTransportResolver builds the default transport from "mail" and one
// transport per entry of "mail.channels", which maps a channel code to a
// profile under "mail.profiles". It also returns the directory read by the
// dev mailbox.
func newTransportResolver(cfg config.Config) (sender.TransportResolver, string, error) {
	def, err := transportConfig(cfg, "mail").Transport()
	if err != nil {
		return nil, "", fmt.Errorf("email: default transport: %w", err)
	}

	channels := make(map[string]sender.Transport)
	for channel, profile := range cfg.GetStringMap("mail.channels") {
		t, err := transportConfig(cfg, "mail.profiles."+profile).Transport()
		if err != nil {
			return nil, "", fmt.Errorf("email: transport of channel %q: %w", channel, err)
		}
		channels[channel] = t
		slog.Info("email channel transport configured", "channel", channel, "profile", profile)
	}

	mailboxDir := cfg.GetString("modules.email.dev_mailbox.dir")
	if ft, ok := def.(sender.FileTransport); ok && mailboxDir == "" {
		mailboxDir = ft.OutputPath
	}

	if len(channels) == 0 {
		return sender.Static(def), mailboxDir, nil
	}
	return sender.ByChannel(def, channels), mailboxDir, nil
}

func transportConfig(cfg config.Config, key string) sender.Config {
	return sender.Config{
		Type:             cfg.GetString(key + ".type"),
		OutputPath:       cfg.GetString(key + ".output_path"),
		Raw:              cfg.GetBool(key + ".raw"),
		Path:             cfg.GetString(key + ".sendmail_path"),
		NewlineStyle:     cfg.GetString(key + ".newline_style"),
		Host:             cfg.GetString(key + ".host"),
		Port:             cfg.GetInt(key + ".port"),
		Username:         cfg.GetString(key + ".username"),
		Password:         cfg.GetString(key + ".password"),
		Secure:           cfg.GetBool(key + ".secure"),
		IgnoreTLS:        cfg.GetBool(key + ".ignore_tls"),
		Name:             cfg.GetString(key + ".name"),
		Region:           cfg.GetString(key + ".region"),
		AccessKey:        cfg.GetString(key + ".access_key"),
		SecretKey:        cfg.GetString(key + ".secret_key"),
		ConfigurationSet: cfg.GetString(key + ".configuration_set"),
		APIKey:           cfg.GetString(key + ".api_key"),
	}
}
