// Command fintrack serves the finance store over a JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/dashboard"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fintrack stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).Create(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close storage", log.FieldError, err)
		}
	}()

	st := store.New(
		store.WithInitialState(res.Initial),
		store.WithIDGenerator(res.IDs),
		store.WithSaver(res.Persister),
		store.WithLogger(logger.Logger),
	)

	dash := dashboard.New(st, cfg.DashboardCacheSize, cfg.DashboardCacheTTL,
		dashboard.WithLogger(logger.Logger))
	defer dash.Close()

	caches := cache.NewManager(logger.Logger)
	caches.Register(dash.Cache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	var pub amqp.StatePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			pub = client
			logger.Info("Publishing state changes", "exchange", cfg.AMQPExchange)
		}
	}
	notifier := amqp.NewNotifier(st, pub, cfg.EventBuffer, logger.Logger)
	defer notifier.Close()

	srv := apphttp.NewServer(":"+cfg.Port, st, dash,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(func(ctx context.Context) error {
			_, err := res.KV.Get(ctx, cfg.StorageKey)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		}),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return notifier.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.StorageBackend,
			"source", string(res.Source),
			log.FieldMonth, st.CurrentMonth())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
