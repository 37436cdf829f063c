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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"

	"chatgate/internal/completion"
	credhandler "chatgate/internal/credentials/handler"
	credservice "chatgate/internal/credentials/service"
	credmemory "chatgate/internal/credentials/store/memory"
	credpostgres "chatgate/internal/credentials/store/postgres"
	"chatgate/internal/gateway"
	gatewaymetrics "chatgate/internal/gateway/metrics"
	"chatgate/internal/platform/config"
	"chatgate/internal/platform/httpserver"
	"chatgate/internal/platform/logger"
	platformredis "chatgate/internal/platform/redis"
	"chatgate/internal/routes"
	"chatgate/internal/session/provider"
	sessionservice "chatgate/internal/session/service"
	httptransport "chatgate/internal/transport/http"
	usagehandler "chatgate/internal/usage/handler"
	usagemetrics "chatgate/internal/usage/metrics"
	"chatgate/internal/usage/period"
	usageservice "chatgate/internal/usage/service"
	"chatgate/internal/usage/store/counter"
	"chatgate/pkg/audit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence. Postgres when configured, then Redis, then in-memory for
	// dev and demo runs.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
	}

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var credStore credservice.Store
	var counterStore usageservice.CounterStore
	switch {
	case db != nil:
		credStore = credpostgres.New(db)
		counterStore = counter.NewPostgres(db)
		log.Info("using postgres stores")
	case rdb != nil:
		credStore = credmemory.New()
		counterStore = counter.NewRedis(rdb.Client)
		log.Info("using redis counter store")
	default:
		credStore = credmemory.New()
		counterStore = counter.NewInMemory()
		log.Warn("no persistence configured, using in-memory stores")
	}

	// Audit events go to Kafka when brokers are configured; otherwise they
	// stay in structured logs only.
	var auditPublisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafka.Close()
		auditPublisher = kafka
		log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
	}

	tokens, err := provider.NewJWT(cfg.SessionSigningKey, cfg.SessionTTL, cfg.SessionRefreshWindow)
	if err != nil {
		return fmt.Errorf("build token provider: %w", err)
	}

	validator, err := sessionservice.New(tokens,
		sessionservice.WithLogger(log),
		sessionservice.WithTimeout(cfg.ProviderTimeout),
	)
	if err != nil {
		return fmt.Errorf("build session validator: %w", err)
	}

	classifier := routes.NewClassifier(cfg.ProtectedPrefixes, cfg.AuthOnlyPrefixes)
	gatewaySvc, err := gateway.New(validator, classifier, cfg.SignInPath, cfg.LandingPath)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}

	credOpts := []credservice.Option{
		credservice.WithLogger(log),
		credservice.WithStoreTimeout(cfg.StoreTimeout),
	}
	if auditPublisher != nil {
		credOpts = append(credOpts, credservice.WithAuditPublisher(auditPublisher))
	}
	registry, err := credservice.New(credStore, credOpts...)
	if err != nil {
		return fmt.Errorf("build credential registry: %w", err)
	}

	location, err := cfg.QuotaLocation()
	if err != nil {
		return err
	}
	clock, err := period.NewClock(location)
	if err != nil {
		return fmt.Errorf("build period clock: %w", err)
	}

	usageOpts := []usageservice.Option{
		usageservice.WithLogger(log),
		usageservice.WithMetrics(usagemetrics.New()),
		usageservice.WithStoreTimeout(cfg.StoreTimeout),
	}
	if auditPublisher != nil {
		usageOpts = append(usageOpts, usageservice.WithAuditPublisher(auditPublisher))
	}
	usage, err := usageservice.New(registry, counterStore, clock, cfg.DailyCallLimit, usageOpts...)
	if err != nil {
		return fmt.Errorf("build usage service: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger: log,
		Gateway: gateway.NewMiddleware(gatewaySvc, cfg.SessionCookieName, log,
			gateway.WithMetrics(gatewaymetrics.New())),
		Chat:        httptransport.NewChatHandler(usage, completion.NewEcho(), log),
		Usage:       usagehandler.New(usage, log),
		Credentials: credhandler.New(registry, log),
		Metrics:     promhttp.Handler(),
	})

	srv := httpserver.New(cfg.Addr, router, cfg.ReadHeaderTimeout)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
