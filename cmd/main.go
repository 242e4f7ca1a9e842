package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drawtogether/board-service/config"
	"github.com/drawtogether/board-service/internal/postgres"
	"github.com/drawtogether/board-service/internal/redisstore"
	"github.com/drawtogether/board-service/internal/registry"
	"github.com/drawtogether/board-service/internal/service"
	"github.com/drawtogether/board-service/internal/session"
	"github.com/drawtogether/board-service/internal/store"
	httpx "github.com/drawtogether/board-service/internal/transport/http"
	"github.com/drawtogether/board-service/internal/transport/ws"
	"github.com/drawtogether/board-service/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting board-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version,
		"storage", cfg.Storage.Backend)

	// --- storage ---
	ctx := context.Background()
	var (
		roomStore store.Store
		cleanup   func()
	)
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Storage.PostgresDSN,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		roomStore = store.NewFailover(postgres.NewRoomRepository(pool),
			store.NewMemory(), cfg.Storage.OpTimeout, cfg.Storage.HealthInterval)
		cleanup = pool.Close
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable at startup, serving from fallback", slog.Any("err", err))
		}
		roomStore = store.NewFailover(redisstore.NewRoomRepository(client, "board"),
			store.NewMemory(), cfg.Storage.OpTimeout, cfg.Storage.HealthInterval)
		cleanup = func() { _ = client.Close() }
	default:
		roomStore = store.NewMemory()
		cleanup = func() {}
	}
	defer cleanup()

	// --- core state ---
	reg := registry.New(cfg.Rooms.IDLength)
	sessions := session.NewStore(cfg.Presence.CursorInterval)
	appender := store.NewAppender(roomStore, cfg.Storage.OpTimeout)

	// --- services ---
	roomSvc := service.NewRoomService(roomStore, reg)
	lifecycle := service.NewLifecycle(roomStore, reg, appender,
		cfg.Rooms.Retention, cfg.Rooms.SweepInterval)
	go lifecycle.Run()

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsRouter := ws.NewRouter(sessions, reg, hub, roomStore, appender)
	wsServer := ws.NewServer(wsRouter, cfg.WS.PingInterval, cfg.WS.MaxMessageSize)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", slog.Any("err", err))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	lifecycle.Stop()
	appender.Close()
	slog.Info("stopped")
}
