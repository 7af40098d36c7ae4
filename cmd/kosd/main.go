// Command kosd serves the kos tenancy and billing API.
//
// Without PG_CONN_URL the service runs on the in-memory store, which is
// only suitable for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/modules/kos/httpapi"
	"github.com/dmitrymomot/koskit/modules/kos/memstore"
	"github.com/dmitrymomot/koskit/modules/kos/pgstore"
	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/config"
	"github.com/dmitrymomot/koskit/pkg/file"
	"github.com/dmitrymomot/koskit/pkg/httpserver"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/pg"
	"github.com/dmitrymomot/koskit/pkg/rbac"
	"github.com/dmitrymomot/koskit/pkg/redis"
	"github.com/dmitrymomot/koskit/pkg/requestid"
	"github.com/dmitrymomot/koskit/pkg/sequence"
)

type appConfig struct {
	Env          string        `env:"APP_ENV" envDefault:"development"`
	ServiceName  string        `env:"APP_NAME" envDefault:"kosd"`
	CheckTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"3s"`
	LogFormat    string        `env:"LOG_FORMAT"` // overrides the environment default: json or text

	HTTP  httpserver.Config
	Redis redis.Config
	File  file.Config
	Kos   kos.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("kosd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogFormat != "" {
		logOpts = append(logOpts, logger.WithFormat(logger.Format(cfg.LogFormat)))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	var (
		shutdown []func(context.Context) error
		checks   []httpserver.Check
	)

	store, auditStorage, pool, err := openStore(ctx, log)
	if err != nil {
		return err
	}
	if pool != nil {
		checks = append(checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
		shutdown = append(shutdown, func(context.Context) error {
			pool.Close()
			return nil
		})
	}

	numbers := sequence.Generator(sequence.NewRandomGenerator())
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		numbers = sequence.NewRedisGenerator(client)
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		shutdown = append(shutdown, closeRedis(client))
	}

	files, err := file.NewFromConfig(ctx, cfg.File)
	if err != nil {
		return fmt.Errorf("file storage: %w", err)
	}

	asyncAudit := audit.NewAsyncStorage(auditStorage, audit.AsyncOptions{
		OnError: func(err error) {
			log.Error("audit write failed", logger.Component("audit"), logger.Error(err))
		},
	})
	// Flush pending audit events before the pool closes.
	shutdown = append([]func(context.Context) error{asyncAudit.Close}, shutdown...)

	opts := []kos.ServiceOption{
		kos.WithConfig(cfg.Kos),
		kos.WithLogger(log),
		kos.WithNumberGenerator(numbers),
		kos.WithAuditLogger(audit.NewLogger(asyncAudit, audit.WithRequestIDExtractor(requestid.FromContext))),
		kos.WithFileStorage(files),
	}
	if cfg.Kos.RolesFile != "" {
		authz, err := rbac.NewAuthorizer(ctx, rbac.FileSource(cfg.Kos.RolesFile))
		if err != nil {
			return fmt.Errorf("roles: %w", err)
		}
		log.Info("roles loaded", slog.String("file", cfg.Kos.RolesFile), slog.Any("roles", authz.Roles()))
		opts = append(opts, kos.WithAuthorizer(authz))
	}

	svc, err := kos.NewService(ctx, store, opts...)
	if err != nil {
		return err
	}
	if err := seedPlans(ctx, svc, cfg.Kos.PlanCatalogFile, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api := httpapi.New(svc,
		httpapi.WithLogger(log),
		httpapi.WithMetrics(httpapi.NewMetrics(reg)),
		httpapi.WithReadinessChecks(cfg.CheckTimeout, checks...),
	)

	serverOpts := []httpserver.Option{httpserver.WithLogger(log)}
	for _, fn := range shutdown {
		serverOpts = append(serverOpts, httpserver.WithShutdownFunc(fn))
	}
	return httpserver.NewFromConfig(cfg.HTTP, serverOpts...).Run(ctx, api.Handler())
}

// openStore returns the postgres store when PG_CONN_URL is set, otherwise the
// in-memory store with audit events written to the log.
func openStore(ctx context.Context, log *slog.Logger) (kos.Store, audit.Storage, *pgxpool.Pool, error) {
	if os.Getenv("PG_CONN_URL") == "" {
		log.Warn("PG_CONN_URL is not set, using in-memory store")
		return memstore.New(), audit.NewSlogStorage(log), nil, nil
	}

	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, nil, nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	store := pgstore.New(pool, pgstore.WithTxRetryAttempts(cfg.TxRetryAttempts))
	return store, pgstore.NewAuditStorage(pool), pool, nil
}

func seedPlans(ctx context.Context, svc kos.Service, path string, log *slog.Logger) error {
	plans := kos.DefaultPlanCatalog()
	if path != "" {
		var err error
		if plans, err = kos.LoadPlanCatalogFile(path); err != nil {
			return err
		}
	}
	n, err := svc.SeedPlans(ctx, plans)
	if err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	log.Info("plan catalog seeded", slog.Int("inserted", n), slog.Int("total", len(plans)))
	return nil
}

func closeRedis(client *goredis.Client) func(context.Context) error {
	return func(context.Context) error {
		if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
		return nil
	}
}
