package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/mailbite/internal/email/inbound"
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
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	pubsubScope = "https://www.googleapis.com/auth/pubsub"
	pingTimeout = 5 * time.Second

	// RBAC with "*" wildcards on object and action.
	rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
)

// fatal stops the process during wiring. Nothing is running yet, so there
// is nothing to unwind.
func fatal(err error, msg string, args ...any) {
	if err == nil {
		return
	}
	slog.Error(msg, append(args, "error", err)...)
	os.Exit(1)
}

// configPath prefers CONFIG_PATH, then the local or container default.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() {
	cfg, err := config.NewViper(configPath(), "MAILBITE")
	fatal(err, "failed to load config")

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // only affects time.Local for this process
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })
}

func (a *App) initInstrument() {
	c := a.config
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          c.GetBool("instrument.enabled"),
		ServiceName:      c.GetString("instrument.service_name"),
		ServiceVersion:   c.GetString("instrument.service_version"),
		Environment:      c.GetString("instrument.env"),
		OTLPEndpoint:     c.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       c.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: c.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  c.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         c.GetString("instrument.log_level"),
		MaskFields:       c.GetArray("instrument.log_mask_fields"),
		EmailMaskFields:  c.GetArray("instrument.log_email_fields"),
	})
	fatal(err, "failed to init instrumentation")

	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	v, err := validator.NewV10Validator()
	fatal(err, "failed to init validator")
	a.validator = v

	snow, err := uid.NewSnowflake()
	fatal(err, "failed to init snowflake ids")
	a.uid = snow
}

func (a *App) initJWT() {
	c := a.config
	verifier, err := jwt.NewHMAC(jwt.Config{
		Algorithm: c.GetString("jwt.algorithm"),
		Secret:    []byte(c.GetString("jwt.secret")),
		Issuer:    c.GetString("jwt.issuer"),
		Audiences: c.GetArray("jwt.audiences"),
		TTL:       c.GetMinute("jwt.ttl_minutes"),
		Leeway:    c.GetSecond("jwt.leeway_seconds"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	fatal(err, "failed to init jwt verifier")
	a.jwt = verifier
}

// ping fails startup when a dependency does not answer within pingTimeout.
func (a *App) ping(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	fatal(fn(ctx), "dependency did not answer ping", "name", name)
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	fatal(err, "failed to parse database url")

	const pool = "database.pool."
	pc.MaxConns = a.config.GetInt32(pool + "max_conns")
	pc.MinConns = a.config.GetInt32(pool + "min_conns")
	pc.MaxConnLifetime = a.config.GetSecond(pool + "max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond(pool + "max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond(pool + "health_check_period_seconds")

	db, err := pgxpool.NewWithConfig(a.ctx, pc)
	fatal(err, "failed to open database pool")
	a.ping("postgres", db.Ping)

	a.dbConn = db
	a.onClose("postgres", func(context.Context) error {
		db.Close()
		return nil
	})
}

// initCache connects redis when configured. Without it queued jobs are not
// guarded against redelivery.
func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		slog.Warn("redis is not configured, email job redelivery guard disabled")
		return
	}

	opt, err := redis.ParseURL(url)
	fatal(err, "failed to parse redis url")

	rdb := redis.NewClient(opt)
	a.ping("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	a.cacheConn = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })
}

// googleClientOptions reads the client settings shared by GCS and Pub/Sub
// under key. Inline credentials_json wins over credentials_file.
func (a *App) googleClientOptions(key string, scopes ...string) []option.ClientOption {
	c := a.config
	var opts []option.ClientOption
	if c.GetBool(key + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}

	credsJSON := c.GetBinary(key + ".credentials_json")
	if path := strings.TrimSpace(c.GetString(key + ".credentials_file")); len(credsJSON) == 0 && path != "" {
		var err error
		// #nosec G304 -- path comes from the operator's config.
		credsJSON, err = os.ReadFile(path)
		fatal(err, "failed to read google credentials", "key", key)
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, scopes...)
		fatal(err, "failed to parse google credentials", "key", key)
		opts = append(opts, option.WithCredentials(creds))
	}

	if v := strings.TrimSpace(c.GetString(key + ".endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(c.GetString(key + ".user_agent")); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}
	return opts
}

// initStorage is optional: object storage serves templates, attachment
// paths and the sent-mail archive only when a driver is configured.
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		return
	}

	str := func(key string) string { return strings.TrimSpace(a.config.GetString("storage." + key)) }
	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       str("s3.region"),
			Endpoint:     str("s3.endpoint"),
			AccessKey:    str("s3.access_key"),
			SecretKey:    str("s3.secret_key"),
			SessionToken: str("s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			ClientOptions: a.googleClientOptions("storage.gcs", gcs.ScopeFullControl),
		},
		MinIO: storage.MinIOOptions{
			Region:       str("minio.region"),
			Endpoint:     str("minio.endpoint"),
			AccessKey:    str("minio.access_key"),
			SecretKey:    str("minio.secret_key"),
			SessionToken: str("minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	fatal(err, "failed to init storage", "driver", driver)

	a.storage = stg
	a.onClose("storage", func(context.Context) error { return stg.Close() })
}

func (a *App) natsOptions() []nats.Option {
	const k = "messaging.nats."
	c := a.config
	return []nats.Option{
		nats.Name(c.GetString(k + "name")),
		nats.MaxReconnects(c.GetInt(k + "max_reconnects")),
		nats.Timeout(c.GetSecond(k + "timeout_seconds")),
		nats.ReconnectWait(c.GetSecond(k + "reconnect_wait_seconds")),
		nats.PingInterval(c.GetSecond(k + "ping_interval_seconds")),
		nats.MaxPingsOutstanding(c.GetInt(k + "max_pings_outstanding")),
		nats.RetryOnFailedConnect(c.GetBool(k + "retry_on_failed_connect")),
	}
}

func (a *App) initMessaging() {
	c := a.config
	driver := c.GetString("messaging.driver")

	opts := messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         c.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    c.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: c.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		NATS: messaging.NATSConfig{
			URL:     c.GetString("messaging.nats.url"),
			Options: a.natsOptions(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: c.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  c.GetString("messaging.kafka.client_id"),
				Timeout:   c.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: c.GetString("messaging.pubsub.project_id"),
		},
	}
	// only resolve google credentials when they will be used
	if driver == messaging.DriverGooglePubSub {
		opts.PubSub.ClientOptions = a.googleClientOptions("messaging.pubsub", pubsubScope)
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, opts)
	fatal(err, "failed to init messaging", "driver", driver)

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
}

// initCasbin builds an in-memory RBAC enforcer. Policies come from
// "authz.policies" as role:object:action entries and role assignments from
// "authz.roles" as subject:role entries, both comma separated. Requests are
// checked for the JWT subject and each role claim.
func (a *App) initCasbin() {
	m, err := model.NewModelFromString(rbacModel)
	fatal(err, "failed to parse casbin model")

	e, err := casbin.NewEnforcer(m)
	fatal(err, "failed to init casbin")

	if policies := splitRules(a.config.GetArray("authz.policies"), 3); len(policies) > 0 {
		_, err = e.AddPolicies(policies)
		fatal(err, "failed to add casbin policies")
	}
	if roles := splitRules(a.config.GetArray("authz.roles"), 2); len(roles) > 0 {
		_, err = e.AddGroupingPolicies(roles)
		fatal(err, "failed to add casbin roles")
	}

	a.casbin = e
}

// splitRules turns "a:b:c" entries into rules of exactly n fields. Blank and
// malformed entries are skipped with a warning.
func splitRules(entries []string, n int) [][]string {
	var rules [][]string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Split(entry, ":")
		if len(fields) != n {
			slog.Warn("skipping malformed casbin rule", "rule", entry, "fields", n)
			continue
		}
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rules = append(rules, fields)
	}
	return rules
}

func (a *App) initHTTPServer() {
	var public []string
	if a.config.GetBool("modules.email.dev_mailbox.enabled") {
		public = inbound.MailboxEndpoints
	}

	a.router = router.NewRouter(router.Config{
		Config:          a.config,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		PublicEndpoints: public,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", router.HeaderCorrelationID, router.HeaderRequestID},
		ExposedHeaders:   []string{router.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	const k = "app.server.http."
	a.httpServer = &http.Server{
		Addr:              a.config.GetString(k + "address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond(k + "read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond(k + "read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond(k + "write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond(k + "idle_timeout_seconds"),
	}
}
