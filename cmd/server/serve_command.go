package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/rcleozier/creator-log/internal/coingecko"
	"github.com/rcleozier/creator-log/internal/config"
	"github.com/rcleozier/creator-log/internal/db"
	"github.com/rcleozier/creator-log/internal/handler"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/repository"
	"github.com/rcleozier/creator-log/internal/router"
	"github.com/rcleozier/creator-log/internal/service"
	"github.com/rcleozier/creator-log/internal/sheet"
	"github.com/rcleozier/creator-log/internal/snapshot"
	"github.com/rcleozier/creator-log/internal/tracing"
)

// archiveKeep is how many distinct datasets the archive retains.
const archiveKeep = 500

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, cc *commandContext) error {
	cfg := cc.cfg
	log := logging.Component("server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, tracing.Service{
		Name:        serviceName,
		Version:     handler.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// The archive is optional; without DATABASE_URL the chain skips it.
	var pool *pgxpool.Pool
	var archive service.Archive
	var pruner service.Pruner
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		metrics.RegisterPool(pool)

		repo := repository.NewSnapshotRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		archive, pruner = repo, repo
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	store := snapshot.NewStore(cfg.Sheet.SnapshotDir)
	cases := service.NewCaseService(
		sheet.NewClient(cfg.Sheet.CSVURL, cfg.Sheet.Timeout),
		archive,
		store,
		cache,
		cfg.Sheet.CacheTTL,
	)
	grades := newGradeService(cfg, cache)

	if cfg.Sheet.RefreshInterval > 0 {
		worker := service.NewRefreshWorker(cases, pruner, archiveKeep, cfg.Sheet.RefreshInterval)
		go worker.Start(ctx)
		defer worker.Stop()
	}

	limiters := router.DefaultLimiters()
	defer limiters.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Creator Log API",
		ServerHeader: "creatorlog",
	})
	router.Setup(app, &router.Handlers{
		Case:        handler.NewCaseHandler(cases),
		Termination: handler.NewTerminationHandler(cases),
		Stats:       handler.NewStatsHandler(cases),
		Export:      handler.NewExportHandler(store),
		Coin:        handler.NewCoinHandler(grades),
		Grade:       handler.NewGradeHandler(grades),
		Health:      handler.NewHealthHandler(pool, cache.Client(), cases),
	}, limiters, cfg.CORSOrigins)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("creator log API starting")
		errCh <- app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newGradeService(cfg *config.Config, cache *service.CacheService) *service.GradeService {
	market := coingecko.NewClient(coingecko.Config{
		BaseURL: cfg.CoinGecko.BaseURL,
		APIKey:  cfg.CoinGecko.APIKey,
		RPS:     cfg.CoinGecko.RPS,
		Burst:   cfg.CoinGecko.Burst,
		Timeout: cfg.CoinGecko.Timeout,
	})
	return service.NewGradeService(market, cache, service.GradeConfig{
		CacheTTL:    cfg.CoinGecko.CacheTTL,
		Concurrency: cfg.CoinGecko.GradeConcurrency,
		BatchMax:    cfg.CoinGecko.BatchMax,
	})
}
