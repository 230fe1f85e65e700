package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"docstamp/internal/admin"
	"docstamp/internal/audit"
	auditmemory "docstamp/internal/audit/store/memory"
	auditpostgres "docstamp/internal/audit/store/postgres"
	"docstamp/internal/auth/cookie"
	"docstamp/internal/auth/directory"
	"docstamp/internal/auth/gate"
	"docstamp/internal/auth/password"
	sessionstore "docstamp/internal/auth/store/session"
	userstore "docstamp/internal/auth/store/user"
	"docstamp/internal/issuance"
	"docstamp/internal/platform/config"
	"docstamp/internal/platform/httpserver"
	"docstamp/internal/platform/kafka"
	"docstamp/internal/platform/logger"
	"docstamp/internal/platform/metrics"
	"docstamp/internal/platform/postgres"
	"docstamp/internal/platform/redis"
	"docstamp/internal/render/pdfcpu"
	"docstamp/internal/stamp"
	httptransport "docstamp/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docstamp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the built-in development session signing key; set SESSION_SIGNING_KEY in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	var handlerOpts []httptransport.Option
	handlerOpts = append(handlerOpts, httptransport.WithMetricsHandler(promhttp.Handler()))

	users, usersDB, err := buildUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	if usersDB != nil {
		defer usersDB.Close()
		handlerOpts = append(handlerOpts, httptransport.WithReadinessCheck("users_db", usersDB.PingContext))
	}

	logStore, logsDB, err := buildLogStore(ctx, cfg, usersDB)
	if err != nil {
		return err
	}
	if logsDB != nil && logsDB != usersDB {
		defer logsDB.Close()
		handlerOpts = append(handlerOpts, httptransport.WithReadinessCheck("logs_db", logsDB.PingContext))
	}

	sessions, redisClient, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		handlerOpts = append(handlerOpts, httptransport.WithReadinessCheck("redis", func(ctx context.Context) error {
			return redis.Health(ctx, redisClient)
		}))
	}

	auditOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(m)}
	kafkaClient, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return err
	}
	var mirror *audit.Worker
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka.AuditTopic); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		mirror = audit.NewWorker(audit.NewKafkaPublisher(kafkaClient, cfg.Kafka.AuditTopic), cfg.Kafka.MirrorBuffer, log, m)
		auditOpts = append(auditOpts, audit.WithMirror(mirror))
		handlerOpts = append(handlerOpts, httptransport.WithReadinessCheck("kafka", func(ctx context.Context) error {
			return kafka.Health(ctx, kafkaClient)
		}))
	}
	generationLog := audit.New(logStore, auditOpts...)

	stamper, err := buildStamper(cfg, log, m)
	if err != nil {
		return err
	}

	dirOpts := []directory.Option{directory.WithLogger(log), directory.WithMetrics(m)}
	if cfg.Auth.AdminMode == config.AdminOperator {
		dirOpts = append(dirOpts, directory.WithOperator(cfg.Auth.OperatorUsername, cfg.Auth.OperatorPasswordHash))
	}
	dir := directory.New(users, password.NewHasher(cfg.Auth.BcryptCost), dirOpts...)

	if cfg.Auth.BootstrapAdminUsername != "" {
		created, err := dir.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("bootstrap admin checked", "username", cfg.Auth.BootstrapAdminUsername, "created", created)
	}

	accessGate := gate.New(dir, sessions, cfg.Auth, gate.WithLogger(log), gate.WithMetrics(m))
	issuer := issuance.New(stamper, generationLog, issuance.WithLogger(log), issuance.WithMetrics(m))
	adminSvc := admin.New(dir, accessGate, generationLog, admin.WithLogger(log))
	cookies := cookie.NewCodec(cfg.Auth.SessionSigningKey, cfg.Server.SecureCookies)

	handler := httptransport.NewHandler(accessGate, issuer, adminSvc, cookies, log, handlerOpts...)
	srv := httpserver.New(cfg.Server, httptransport.NewRouter(handler), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting docstamp",
			"addr", cfg.Server.Addr,
			"generation_mode", string(cfg.Auth.GenerationMode),
			"admin_mode", string(cfg.Auth.AdminMode),
		)
		return srv.Run(gctx)
	})
	if mirror != nil {
		g.Go(func() error {
			if err := mirror.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func buildUserStore(ctx context.Context, cfg config.Config) (directory.UserStore, *sql.DB, error) {
	if cfg.Database.UsersURL == "" {
		return userstore.New(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg.Database.UsersURL, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("users database: %w", err)
	}
	if err := postgres.Migrate(ctx, db, userstore.Schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("users database: %w", err)
	}
	return userstore.NewPostgres(db), db, nil
}

// buildLogStore reuses the users handle when both stores share one URL.
func buildLogStore(ctx context.Context, cfg config.Config, usersDB *sql.DB) (audit.Store, *sql.DB, error) {
	dsn := cfg.Database.LogsDSN()
	if dsn == "" {
		return auditmemory.NewInMemoryStore(), nil, nil
	}
	db := usersDB
	if db == nil || dsn != cfg.Database.UsersURL {
		opened, err := postgres.Open(ctx, dsn, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("logs database: %w", err)
		}
		db = opened
	}
	if err := postgres.Migrate(ctx, db, auditpostgres.Schema); err != nil {
		if db != usersDB {
			db.Close()
		}
		return nil, nil, fmt.Errorf("logs database: %w", err)
	}
	return auditpostgres.New(db), db, nil
}

func buildSessionStore(ctx context.Context, cfg config.Config) (gate.SessionStore, *goredis.Client, error) {
	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return sessionstore.New(), nil, nil
	}
	return sessionstore.NewRedis(client), client, nil
}

func buildStamper(cfg config.Config, log *slog.Logger, m *metrics.Metrics) (*stamp.Stamper, error) {
	renderer, err := pdfcpu.New(cfg.Assets.FontCacheDir)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer: %w", err)
	}
	assets := os.DirFS(cfg.Assets.Dir)
	for _, p := range []string{cfg.Assets.TemplatePath, cfg.Assets.FontPath} {
		if _, err := fs.Stat(assets, p); err != nil {
			log.Warn("asset not readable yet; generation will fail until it is", "dir", cfg.Assets.Dir, "path", p, "error", err)
		}
	}
	return stamp.New(renderer, assets, cfg.Assets.TemplatePath, cfg.Assets.FontPath,
		stamp.WithLogger(log),
		stamp.WithMetrics(m),
	)
}
