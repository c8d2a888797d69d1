package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/vaderpos/inventory-service/internal/api"
	"github.com/vaderpos/inventory-service/internal/config"
	"github.com/vaderpos/inventory-service/internal/ledger"
	"github.com/vaderpos/inventory-service/internal/publisher"
	"github.com/vaderpos/inventory-service/internal/store"
	"github.com/vaderpos/inventory-service/internal/ws"
	"github.com/vaderpos/inventory-service/pkg/eventbus"
	"github.com/vaderpos/inventory-service/pkg/logger"
	"github.com/vaderpos/inventory-service/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [inventory-service]...")

	// --- Store ---
	var st store.Store
	switch cfg.StoreBackend {
	case "postgres":
		logg.Info("connecting to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
		hybrid, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.DatabaseURL, cfg.CacheTTL, store.PGPoolConfig{
			MaxConns:          int32(cfg.PGMaxConns),
			MinConns:          int32(cfg.PGMinConns),
			MaxConnLifetime:   cfg.PGMaxConnLifetime,
			MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
			HealthCheckPeriod: cfg.PGHealthCheckPeriod,
		}, logger.L())
		if err != nil {
			logg.Fatalw("failed to init store", "error", err)
		}
		st = hybrid
	case "memory":
		st = store.NewMemory()
	default:
		logg.Fatalw("unknown store backend", "backend", cfg.StoreBackend)
	}
	defer st.Close()

	// --- Change event bus + ledger ---
	bus := eventbus.New()
	led := ledger.New(st, bus, logger.L())

	// --- Broadcast path ---
	registry := ws.NewRegistry()
	hub := ws.NewHub(led, registry, bus, cfg.EventBuffer, logger.L())
	go hub.Run(ctx)

	// --- Optional NATS egress ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		defer nc.Close()
		pub := publisher.New(nc, cfg.EventSubject, bus, logger.L())
		go pub.Run(ctx)
		logg.Infow("event publisher enabled", "subject_prefix", cfg.EventSubject)
	}

	// --- Socket server (own listener; gorilla needs net/http hijacking) ---
	sessionHandler := ws.NewSessionHandler(led, registry, hub, cfg.WSWriteTimeout, logger.L())
	socketMux := http.NewServeMux()
	socketMux.Handle(cfg.SocketPath, sessionHandler)
	socketSrv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.SocketPort),
		Handler:     socketMux,
		ReadTimeout: cfg.HTTPReadTimeout,
		IdleTimeout: cfg.HTTPIdleTimeout,
	}
	go func() {
		logg.Infow("socket server listening", "port", cfg.SocketPort, "path", cfg.SocketPath)
		if err := socketSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("socket server failed", "error", err)
		}
	}()

	// --- REST API ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})
	api.RegisterRoutes(app, api.NewHandler(logger.L(), led), st)

	go func() {
		logg.Infow("http server listening", "port", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = socketSrv.Shutdown(shutdownCtx)
	_ = app.ShutdownWithContext(shutdownCtx)
	logg.Info("shutdown complete")
}
