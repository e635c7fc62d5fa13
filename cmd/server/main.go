// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	authorityhandler "blocktrust/internal/authority/handler"
	authorityservice "blocktrust/internal/authority/service"
	authoritystore "blocktrust/internal/authority/store"
	httpapi "blocktrust/internal/http"
	jwttoken "blocktrust/internal/jwt_token"
	"blocktrust/internal/platform/config"
	"blocktrust/internal/platform/httpserver"
	"blocktrust/internal/platform/logger"
	platformmetrics "blocktrust/internal/platform/metrics"
	platformredis "blocktrust/internal/platform/redis"
	"blocktrust/internal/registry/cache"
	registryhandler "blocktrust/internal/registry/handler"
	registrymetrics "blocktrust/internal/registry/metrics"
	registryservice "blocktrust/internal/registry/service"
	registrystore "blocktrust/internal/registry/store"
	"blocktrust/internal/wallet"
	wallethandler "blocktrust/internal/wallet/handler"
	id "blocktrust/pkg/domain"
	audit "blocktrust/pkg/platform/audit"
	auditkafka "blocktrust/pkg/platform/audit/kafka"
	"blocktrust/pkg/platform/audit/publisher"
	auditmemory "blocktrust/pkg/platform/audit/store/memory"
	auditpg "blocktrust/pkg/platform/audit/store/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.Server.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. An empty Postgres URL selects the in-memory stores for local
	// runs; everything else is wired identically.
	var (
		db         *sql.DB
		regStore   registrystore.Store
		authStore  authoritystore.Store
		auditStore audit.Store
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		for _, migrate := range []func(context.Context, *sql.DB) error{
			registrystore.Migrate,
			authoritystore.Migrate,
			auditpg.Migrate,
		} {
			if err := migrate(ctx, db); err != nil {
				return err
			}
		}
		regStore = registrystore.NewPostgres(db)
		authStore = authoritystore.NewPostgres(db)
		auditStore = auditpg.New(db)
	} else {
		log.Warn("no postgres configured, using in-memory stores")
		regStore = registrystore.NewInMemory()
		authStore = authoritystore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
	}

	// Lifecycle events block on the audit store; read-path events are
	// buffered and best-effort.
	compliancePub := publisher.NewPublisher(auditStore, publisher.WithLogger(log))
	opsPub := publisher.NewPublisher(auditStore,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	)
	defer opsPub.Close()

	metrics := platformmetrics.New()

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "blocktrust", "registry-api")
	jwtValidator := jwttoken.NewAdapter(jwtService)

	authority := authorityservice.New(authStore, compliancePub, log)
	bootstrap, err := parseAccounts(cfg.Registry.BootstrapMinters)
	if err != nil {
		return fmt.Errorf("bootstrap minters: %w", err)
	}
	if err := authority.Seed(ctx, bootstrap); err != nil {
		return err
	}

	healthChecks := map[string]httpapi.HealthCheck{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}

	registryOpts := []registryservice.Option{
		registryservice.WithMetrics(registrymetrics.New()),
		registryservice.WithOpsPublisher(opsPub),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
		registryOpts = append(registryOpts, registryservice.WithCache(
			cache.New(redisClient.Client, log, cache.WithTTL(cfg.Registry.CacheTTL)),
		))
	}

	registry := registryservice.New(regStore, authority, compliancePub, log, registryOpts...)

	router := httpapi.NewRouter(log, healthChecks,
		registryhandler.New(registry, log, metrics, jwtValidator),
		authorityhandler.New(authority, log, metrics, jwtValidator),
		wallethandler.New(wallet.New(), log, metrics, jwtValidator),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting blocktrust registry", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// The outbox relay needs both durable storage and a broker.
	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		relay, err := auditkafka.NewRelay(db, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			return fmt.Errorf("audit relay: %w", err)
		}
		defer relay.Close()
		group.Go(func() error {
			return relay.Run(ctx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func parseAccounts(raw []string) ([]id.Account, error) {
	accounts := make([]id.Account, 0, len(raw))
	for _, entry := range raw {
		account, err := id.ParseAccount(entry)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", entry, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
