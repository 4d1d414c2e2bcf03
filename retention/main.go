package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/threadsradar/threads-radar/internal/config"
	"github.com/threadsradar/threads-radar/internal/elasticsearch"
	"github.com/threadsradar/threads-radar/internal/logger"
	"github.com/threadsradar/threads-radar/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	db, err := store.New(cfg.SQLitePath)
	if err != nil {
		log.Error("open post store", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Retry Elasticsearch connection with backoff
	var esClient *elasticsearch.Client
	maxRetries := 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		esClient, err = elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexPrefix, log)
		if err != nil {
			log.Warn("failed to create elasticsearch client, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", maxRetries),
			)
		} else {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if pingErr := esClient.Ping(pingCtx); pingErr == nil {
				cancel()
				break
			} else {
				log.Warn("elasticsearch ping failed, retrying",
					slog.Any("err", pingErr),
					slog.Int("attempt", i+1),
					slog.Int("max_retries", maxRetries),
					slog.Duration("retry_in", retryDelay),
				)
			}
			cancel()
		}

		select {
		case <-time.After(retryDelay):
			// Continue to next attempt
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if esClient == nil || esClient.Ping(pingCtx) != nil {
		log.Error("failed to connect to elasticsearch after retries")
		os.Exit(1)
	}

	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	runOnce(ctx, log, db, esClient, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, db, esClient, cfg)
		}
	}
}

// runOnce ages out both raw posts and derived documents. Either side
// failing is non-fatal; the next tick retries.
func runOnce(ctx context.Context, log *slog.Logger, db *store.Store, esClient *elasticsearch.Client, cfg *config.Retention) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	rawDeleted, err := db.DeleteOlderThan(subCtx, cfg.MaxAge)
	if err != nil {
		log.Warn("raw post cleanup failed (will retry on next interval)", slog.Any("err", err))
	} else if rawDeleted > 0 {
		log.Info("raw post cleanup completed", slog.Int64("deleted", rawDeleted))
	}

	derivedDeleted, err := esClient.DeleteOlderThan(subCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("derived doc cleanup failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if derivedDeleted > 0 {
		log.Info("derived doc cleanup completed", slog.Int64("deleted", derivedDeleted))
	} else {
		log.Debug("derived doc cleanup completed, no old documents found")
	}

	if remaining, err := db.Count(subCtx); err == nil {
		log.Info("retention pass finished", slog.Int("posts_remaining", remaining))
	}
}
