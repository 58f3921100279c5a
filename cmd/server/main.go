// Command server wires configuration, storage, the geocoding client, and the
// HTTP surface into a single process. Business logic lives in the internal
// services packages.
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
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authhandler "gatehouse/internal/auth/handler"
	authmetrics "gatehouse/internal/auth/metrics"
	authservice "gatehouse/internal/auth/service"
	"gatehouse/internal/geocode"
	httpapi "gatehouse/internal/http"
	"gatehouse/internal/jwttoken"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/httpserver"
	"gatehouse/internal/platform/logger"
	platformredis "gatehouse/internal/platform/redis"
	usershandler "gatehouse/internal/users/handler"
	usersmetrics "gatehouse/internal/users/metrics"
	usersservice "gatehouse/internal/users/service"
	usersstore "gatehouse/internal/users/store"
	"gatehouse/pkg/platform/audit/publisher"
	kafkasink "gatehouse/pkg/platform/audit/publishers/kafka"
	auditmem "gatehouse/pkg/platform/audit/store/memory"
	auditpg "gatehouse/pkg/platform/audit/store/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: PostgreSQL when configured, in-memory otherwise.
	var (
		db    *sql.DB
		users usersservice.Store
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		pg := usersstore.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate users schema: %w", err)
		}
		users = pg
		log.Info("using postgres user store")
	} else {
		users = usersstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory user store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var resolver geocode.Resolver = geocode.NewClient(cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL)
	if redisClient != nil {
		resolver = geocode.NewCached(resolver, redisClient.Client, cfg.Geocoding.CacheTTL)
		log.Info("geocode cache enabled", "ttl", cfg.Geocoding.CacheTTL)
	}

	sink, err := buildAuditSink(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	if closer, ok := sink.(interface{ Close() }); ok {
		defer closer.Close()
	}
	auditor := publisher.NewPublisher(sink, publisher.WithAsyncBuffer(256))
	defer auditor.Close()

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTokenTTL)
	usersSvc := usersservice.NewService(users, resolver, auditor, log, usersmetrics.New())
	authSvc := authservice.NewService(usersSvc, tokens, auditor, log, authmetrics.New())

	var checks []httpapi.HealthChecker
	if redisClient != nil {
		checks = append(checks, redisClient)
	}
	router := httpapi.New(
		authhandler.New(authSvc, log),
		usershandler.New(usersSvc, log),
		tokens,
		log,
		checks...,
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gatehouse", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildAuditSink picks the audit destination: Kafka when brokers are
// configured, the database when one is available, an in-memory buffer as the
// development fallback.
func buildAuditSink(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (publisher.Sink, error) {
	if cfg.Kafka.Brokers != "" {
		sink, err := kafkasink.New(ctx, strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
		if err != nil {
			return nil, fmt.Errorf("connect kafka audit sink: %w", err)
		}
		log.Info("audit events flowing to kafka", "topic", cfg.Kafka.Topic)
		return sink, nil
	}
	if db != nil {
		store := auditpg.New(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate audit schema: %w", err)
		}
		return store, nil
	}
	log.Warn("no kafka or database configured, audit events stay in memory")
	return auditmem.NewInMemoryStore(), nil
}
