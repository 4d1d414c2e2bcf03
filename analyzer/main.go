package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/threadsradar/threads-radar/internal/cluster"
	"github.com/threadsradar/threads-radar/internal/config"
	"github.com/threadsradar/threads-radar/internal/elasticsearch"
	"github.com/threadsradar/threads-radar/internal/logger"
	"github.com/threadsradar/threads-radar/internal/metrics"
	"github.com/threadsradar/threads-radar/internal/pipeline"
	"github.com/threadsradar/threads-radar/internal/sentiment"
	"github.com/threadsradar/threads-radar/internal/store"
	"github.com/threadsradar/threads-radar/internal/textfeat"
	"github.com/threadsradar/threads-radar/internal/trends"
)

func main() {
	once := flag.Bool("once", false, "run a single analysis pass and exit")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.New("analyzer")
	cfg, err := config.LoadAnalyzer()
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

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexPrefix, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	tok, err := textfeat.NewTokenizer()
	if err != nil {
		log.Error("init tokenizer", slog.Any("err", err))
		os.Exit(1)
	}

	var sent sentiment.Analyzer = sentiment.Neutral{}
	if cfg.SentimentEnabled {
		sent = sentiment.NewVader()
	}

	runner := pipeline.NewRunner(
		db,
		esClient,
		metrics.NewCalculator(log),
		cluster.New(tok, sent, cluster.Config{
			MinInteractions: cfg.MinInteractionsThreshold,
			MaxTopics:       cfg.MaxTopics,
		}, log),
		trends.New(textfeat.NewExtractor(tok, cfg.KeywordMinFreq), sent, trends.Config{
			KeywordMinFreq:     cfg.KeywordMinFreq,
			MomentumWindowDays: cfg.MomentumWindowDays,
		}, log),
		cfg.ClusterTimeout,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := esClient.Ping(pingCtx); err != nil {
		log.Warn("elasticsearch not reachable yet, runs will record save failures", slog.Any("err", err))
	}
	cancel()

	if *once {
		runOnce(ctx, log, runner, cfg.DaysBack)
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("analyzer running",
		slog.Duration("interval", cfg.Interval),
		slog.Int("days_back", cfg.DaysBack),
	)

	runOnce(ctx, log, runner, cfg.DaysBack)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, runner, cfg.DaysBack)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, runner *pipeline.Runner, daysBack int) {
	report := runner.Run(ctx, daysBack)

	log.Info("run report",
		slog.Int("posts_processed", report.PostsProcessed),
		slog.Int("metrics_calculated", report.MetricsCalculated),
		slog.Int("topics_identified", report.TopicsIdentified),
		slog.Int("keywords_analyzed", report.KeywordsAnalyzed),
		slog.Int("metrics_saved", report.Save.MetricsSaved),
		slog.Int("topics_saved", report.Save.TopicsSaved),
		slog.Int("trends_saved", report.Save.TrendsSaved),
		slog.Int("errors", len(report.Errors)),
		slog.Float64("elapsed_seconds", report.ElapsedSeconds),
	)

	for _, msg := range report.Errors {
		log.Warn("run error", slog.String("detail", msg))
	}
}
