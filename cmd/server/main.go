package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fedgate/internal/audit"
	"fedgate/internal/credcrypto"
	"fedgate/internal/directory"
	"fedgate/internal/gateway"
	"fedgate/internal/gateway/handler"
	"fedgate/internal/gateway/metrics"
	"fedgate/internal/handoff"
	"fedgate/internal/identity"
	"fedgate/internal/platform/config"
	"fedgate/internal/platform/httpserver"
	"fedgate/internal/platform/logger"
	"fedgate/internal/platform/middleware"
	platformredis "fedgate/internal/platform/redis"
	"fedgate/internal/resolver"
	"fedgate/internal/trusttoken"
)

// main wires the gateway's dependencies and owns the process lifecycle.
// Business logic lives in the internal packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("gateway exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Gateway, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, closeDir, err := buildDirectory(cfg, log)
	if err != nil {
		return err
	}
	defer closeDir()

	cipher, err := credcrypto.New(cfg.SharedSecret)
	if err != nil {
		return err
	}
	codec := trusttoken.New(cfg.SharedSecret, cipher)

	sink, closeSink, err := buildAuditSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(256, log)
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	svc := gateway.NewService(
		cfg.MasterAdmins,
		codec,
		identity.NewExtractor(identity.AttributeMapping{
			UID:      cfg.SAMLUIDAttr,
			Location: cfg.SAMLLocationAttr,
		}),
		resolver.New(dir, log),
		handoff.NewSelector(codec, handoff.NewExchanger(cfg.ExchangeTimeout)),
		log,
		gateway.WithMetrics(metrics.New()),
		gateway.WithAuditPublisher(publisher),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestMetadata)
	handler.New(svc, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("gateway listening", "addr", cfg.Addr, "directory", cfg.Directory)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildDirectory selects the configured directory provider and wraps it with
// the Redis read-through cache when one is configured.
func buildDirectory(cfg config.Gateway, log *slog.Logger) (directory.Client, func(), error) {
	var (
		dir     directory.Client
		cleanup = func() {}
	)

	switch cfg.Directory {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		dir = directory.NewPostgresStore(db)
		cleanup = func() { db.Close() }
	default:
		dir = directory.NewLookupClient(cfg.LookupURL)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if redisClient != nil {
		dir = directory.NewCache(dir, redisClient.Client, config.DirectoryLookupTTL, log)
		inner := cleanup
		cleanup = func() {
			redisClient.Close()
			inner()
		}
	}

	return dir, cleanup, nil
}

// buildAuditSink picks Kafka when brokers are configured, otherwise the
// in-memory sink so dev setups need no broker.
func buildAuditSink(cfg config.Gateway) (audit.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewMemorySink(), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink.Close, nil
}
