package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"beacon/internal/app/registry"
	"beacon/internal/app/server"
	"beacon/internal/app/server/handlers"
	"beacon/internal/app/server/ws"
	"beacon/internal/app/worker"
	"beacon/internal/config"
	"beacon/internal/core/services"
	"beacon/internal/platform/logger"
	"beacon/internal/platform/metrics"
	"beacon/internal/platform/telemetry"
	"beacon/internal/plugins/postgres"
	redisPlugin "beacon/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN, "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Adapters
	itemRepo := postgres.NewItemRepo(pdb)
	txManager := postgres.NewTxManager(pdb)
	cache := redisPlugin.NewRedisCache(rdb)
	queue := redisPlugin.NewRedisNotificationQueue(rdb, log)
	limiter := redisPlugin.NewSlidingWindowLimiter(rdb, log, cfg.RateLimit.Prefix, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Metrics + Registry
	m := metrics.New()
	hub := registry.NewRegistry(log, m)
	m.RegisterConnectionGauge(hub.ConnectionCount)

	// Core Services
	itemSvc := services.NewItemService(log, itemRepo, cache, txManager)
	notifier := services.NewNotifier(log, hub, queue, cfg.Worker.NotificationStream)
	var tokenSvc *services.TokenService
	if cfg.AuthSecret != "" {
		tokenSvc = services.NewTokenService(cfg.AuthSecret, cfg.Service.Name, cfg.AuthTokenTTL)
	} else {
		log.Warn("AUTH_SECRET not set, authentication disabled")
	}

	// Worker
	wrkr := worker.NewNotificationWorker(log, queue, notifier, cfg.Worker.NotificationStream, cfg.Worker.ConsumerGroup)
	go func() {
		if err := wrkr.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("notification worker stopped", "err", err)
		}
	}()

	// Server
	session := ws.NewSession(hub, *cfg.WS, log)
	srv := server.NewServer(*cfg.Server, server.Deps{
		Items:         handlers.NewItemHandler(itemSvc),
		WS:            handlers.NewWSHandler(hub, session, *cfg.WS),
		Notifications: handlers.NewNotificationHandler(notifier, m),
		Health:        handlers.NewHealthHandler(pdb, rdb, cfg.Service.Version),
		TokenSvc:      tokenSvc,
		Limiter:       limiter,
		Metrics:       m,
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "err", err)
		}
		return
	}

	// Drain: stop accepting requests, then force-close websocket sessions.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	hub.CloseAll()
	log.Info("shutdown complete")
}
