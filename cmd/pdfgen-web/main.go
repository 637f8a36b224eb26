package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/automaxprocs/maxprocs"

	"pdfgen/internal/access"
	"pdfgen/internal/app"
	"pdfgen/internal/credentials"
	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		u.Debug(fmt.Sprintf(format, args...))
	}))

	if err := run(); err != nil {
		u.Error("Startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := u.LoadConfig()
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	apiKey, err := credentials.NewResolver(cfg.Doppio.APIKeyEnv, cfg.Doppio.EnvFile).Resolve()
	if err != nil {
		return err
	}
	client, err := doppio.NewClient(doppio.ConfigFrom(cfg, apiKey))
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := app.Deps{
		Fetcher:    client,
		LimitStore: app.NewLimiterStorage(cfg),
	}

	if cfg.Cache.PDFCacheEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.PDFCacheDB,
		})
		defer rdb.Close()
		deps.Redis = rdb
	}

	if cfg.Auth.Enabled {
		src := access.NewPostgresSource(cfg.Auth.Postgres)
		defer src.Close()
		deps.Tokens = access.NewTokenStore()
		reloader := access.NewReloader(src, deps.Tokens, cfg.Auth.ReloadInterval)
		if err := reloader.LoadOnce(ctx); err != nil {
			u.Error("Failed to load API tokens", "error", err)
		}
		go reloader.Run(ctx)
	}

	idleConnsClosed := make(chan struct{})
	startServer(app.SetupApp(cfg, deps), cfg, idleConnsClosed)
	<-idleConnsClosed
	return nil
}

// startServer starts the Fiber app and blocks until a shutdown signal.
func startServer(app *fiber.App, cfg u.Config, idleConnsClosed chan struct{}) {
	go func() {
		u.Info("Server listening", "addr", cfg.Server.Host+cfg.Server.Port)
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			u.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	u.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	u.Info("Server stopped cleanly")
}
