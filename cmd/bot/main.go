package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bansync/internal/bot"
	"bansync/internal/config"
	"bansync/internal/db"
	"bansync/internal/pipeline"
	"bansync/pkg/infra"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxConnectAttempts = 10

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	if cfg.DiscordToken == "" {
		logger.Error("FATAL: DISCORD_TOKEN is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := connectPostgres(ctx, cfg, logger)
	if store == nil {
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("FATAL: Failed to prepare settings schema", "error", err)
		os.Exit(1)
	}

	discord, err := bot.New(cfg.DiscordToken, store, logger)
	if err != nil {
		logger.Error("FATAL: Failed to create Discord session", "error", err)
		os.Exit(1)
	}

	// Pipeline assembly, leaves first.
	cache, err := pipeline.NewRecencyCache()
	if err != nil {
		logger.Error("FATAL: Failed to build recency cache", "error", err)
		os.Exit(1)
	}
	queues := pipeline.NewLaneQueues()
	planner := pipeline.NewPlanner(store, discord, queues, logger)
	ingestor := pipeline.NewIngestor(cache, planner, logger)
	executor := pipeline.NewExecutor(discord, store, logger)
	dispatcher := pipeline.NewDispatcher(queues, executor, logger)

	discord.SetIngestor(ingestor)

	ingestor.Start(ctx)

	if err := discord.Open(); err != nil {
		logger.Error("FATAL: Failed to connect to Discord", "error", err)
		os.Exit(1)
	}
	defer discord.Close()

	go serveMetrics(cfg.MetricsAddr, logger)

	logger.Info("🚀 Ban sync service started", "pid", os.Getpid())

	// Blocks until ctx cancellation; in-flight batches finish first.
	dispatcher.Run(ctx)
	ingestor.Wait()

	logger.Info("✅ Shutdown complete")
}

// connectPostgres dials the settings store with backoff. New guilds cannot be
// served without it, so repeated failure is fatal.
func connectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) *db.PostgresRepository {
	backoff := infra.NewBackoff(1*time.Second, 30*time.Second, 2.0)

	for {
		store, err := db.NewPostgresRepository(ctx, cfg.DatabaseURL, logger)
		if err == nil {
			logger.Info("Postgres link established")
			return store
		}

		if backoff.Attempts() >= maxConnectAttempts {
			logger.Error("FATAL: Giving up connecting to Postgres", "attempts", backoff.Attempts(), "error", err)
			return nil
		}

		wait := backoff.Next()
		logger.Error("Postgres link failure, retrying", "wait", wait, "error", err)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil
		}
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("Metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server stopped", "error", err)
	}
}
