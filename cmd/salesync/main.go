package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesync/internal/api"
	"salesync/internal/config"
	"salesync/internal/datasync"
	"salesync/internal/health"
	"salesync/internal/logging"
	"salesync/internal/query"
	"salesync/internal/store/mongo"
	"salesync/internal/store/postgres"
	"salesync/internal/store/redis"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()
	logger := slog.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := postgres.Open(ctx, cfg.Stores.Postgres, logger)
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed", "error", err)
		os.Exit(1)
	}

	mg, err := mongo.Open(ctx, cfg.Stores.Mongo, logger)
	if err != nil {
		logger.Error("mongo connection failed", "error", err)
		os.Exit(1)
	}
	defer mg.Close(context.Background())
	if err := mg.EnsureIndexes(ctx); err != nil {
		logger.Error("mongo index setup failed", "error", err)
		os.Exit(1)
	}

	rd, err := redis.Open(ctx, cfg.Stores.Redis, logger)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer rd.Close()

	mongoViews := mongo.NewViewSource(mg)
	viewCache := query.NewViewCache(rd, cfg.Cache.TTL, logger)
	engine := query.NewEngine(logger,
		postgres.NewViewSource(pg),
		mongoViews,
		query.NewCachedSource("redis", viewCache, mongoViews),
	)

	propagator := datasync.NewPropagator(mg, rd, cfg.Sync.OpTimeout, logger)
	reconciler := datasync.NewReconciler(pg, mg, rd, cfg.Sync, logger)
	monitor := health.NewMonitor(cfg.Health, logger,
		health.NamedProber{StoreName: "postgres", ProbeFunc: pg.Probe},
		health.NamedProber{StoreName: "mongo", ProbeFunc: mg.Probe},
		health.NamedProber{StoreName: "redis", ProbeFunc: rd.Probe},
	)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := reconciler.Start(bgCtx); err != nil {
		logger.Error("reconciler start failed", "error", err)
		os.Exit(1)
	}
	if err := monitor.Start(bgCtx); err != nil {
		logger.Error("health monitor start failed", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg.API.Addr, engine, pg, propagator, monitor, logger)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	bgCancel()
	if err := monitor.Stop(shutdownCtx); err != nil {
		logger.Error("health monitor shutdown failed", "error", err)
	}
	if err := reconciler.Stop(shutdownCtx); err != nil {
		logger.Error("reconciler shutdown failed", "error", err)
	}

	logger.Info("stopped")
}
