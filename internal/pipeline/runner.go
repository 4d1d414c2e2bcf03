// Package pipeline sequences the analysis stages over one fetched batch:
// fetch -> metric enrichment -> topic clustering / keyword trends ->
// persistence. Stage failures degrade to documented empty results and land
// in the run report; nothing here is fatal to the process.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/threadsradar/threads-radar/internal/cluster"
	"github.com/threadsradar/threads-radar/internal/metrics"
	"github.com/threadsradar/threads-radar/internal/models"
	"github.com/threadsradar/threads-radar/internal/trends"
)

// Fetcher supplies the raw post batch for a caller-specified date window.
type Fetcher interface {
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.RawPost, error)
}

// Sink receives the three derived output streams.
type Sink interface {
	UpsertPostMetrics(ctx context.Context, m models.PostMetrics) error
	InsertTopicSummary(ctx context.Context, t models.TopicSummary, processedAt time.Time) error
	UpsertKeywordTrend(ctx context.Context, kt models.KeywordTrend, processedAt time.Time) error
}

// Runner wires the stages together for one batch run.
type Runner struct {
	fetcher        Fetcher
	sink           Sink
	calc           *metrics.Calculator
	clusterer      *cluster.Clusterer
	trendsAnalyzer *trends.Analyzer
	clusterTimeout time.Duration
	log            *slog.Logger
}

// NewRunner builds a runner. clusterTimeout bounds the clustering stage;
// zero disables the budget.
func NewRunner(
	fetcher Fetcher,
	sink Sink,
	calc *metrics.Calculator,
	clusterer *cluster.Clusterer,
	trendsAnalyzer *trends.Analyzer,
	clusterTimeout time.Duration,
	log *slog.Logger,
) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		fetcher:        fetcher,
		sink:           sink,
		calc:           calc,
		clusterer:      clusterer,
		trendsAnalyzer: trendsAnalyzer,
		clusterTimeout: clusterTimeout,
		log:            log,
	}
}

// Run executes one full analysis over the posts of the last daysBack days
// and reports what happened. The report always comes back; errors are
// recorded in it, never raised.
func (r *Runner) Run(ctx context.Context, daysBack int) models.RunReport {
	started := time.Now()
	report := models.RunReport{}
	defer func() {
		report.ElapsedSeconds = time.Since(started).Seconds()
		runDuration.Observe(report.ElapsedSeconds)
	}()

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -daysBack)

	raw, err := r.fetcher.ListByDateRange(ctx, windowStart, now)
	if err != nil {
		r.recordError(&report, "fetch", fmt.Errorf("fetch posts: %w", err))
		runsTotal.WithLabelValues("fetch_failed").Inc()
		return report
	}
	if len(raw) == 0 {
		r.log.Warn("no posts in window, nothing to analyze",
			slog.Time("start", windowStart), slog.Time("end", now))
		runsTotal.WithLabelValues("empty").Inc()
		return report
	}
	report.PostsProcessed = len(raw)
	postsProcessed.Add(float64(len(raw)))

	enriched := r.calc.Enrich(now, raw)
	report.MetricsCalculated = len(enriched)

	topics := r.runClustering(ctx, enriched)
	if topics.Failed() {
		r.recordError(&report, "clustering", topics.Err)
	}
	report.TopicsIdentified = len(topics.Data)
	topicsIdentified.Add(float64(len(topics.Data)))

	keywordTrends := r.runTrends(ctx, enriched)
	if keywordTrends.Failed() {
		r.recordError(&report, "trends", keywordTrends.Err)
	}
	report.KeywordsAnalyzed = distinctKeywords(keywordTrends.Data)
	trendRecordsTotal.Add(float64(len(keywordTrends.Data)))

	report.Save = r.persist(ctx, now, enriched, topics.Data, keywordTrends.Data, &report)

	runsTotal.WithLabelValues("ok").Inc()
	r.log.Info("analysis run finished",
		slog.Int("posts", report.PostsProcessed),
		slog.Int("topics", report.TopicsIdentified),
		slog.Int("keywords", report.KeywordsAnalyzed),
		slog.Duration("elapsed", time.Since(started)),
	)
	return report
}

// runClustering applies the wall-clock budget; an expired budget counts as
// a stage failure with an empty result, not a crash.
func (r *Runner) runClustering(ctx context.Context, posts []models.EnrichedPost) StageResult[[]models.TopicSummary] {
	if r.clusterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.clusterTimeout)
		defer cancel()
	}

	topics, err := r.clusterer.Cluster(ctx, posts)
	if err != nil {
		return failed[[]models.TopicSummary](nil, fmt.Errorf("topic clustering: %w", err))
	}
	return ok(topics)
}

func (r *Runner) runTrends(ctx context.Context, posts []models.EnrichedPost) StageResult[[]models.KeywordTrend] {
	keywordTrends, err := r.trendsAnalyzer.Analyze(ctx, posts)
	if err != nil {
		return failed[[]models.KeywordTrend](nil, fmt.Errorf("keyword trends: %w", err))
	}
	return ok(keywordTrends)
}

// persist hands the three output streams to the sink, counting successes
// and failures per stream.
func (r *Runner) persist(
	ctx context.Context,
	processedAt time.Time,
	posts []models.EnrichedPost,
	topics []models.TopicSummary,
	keywordTrends []models.KeywordTrend,
	report *models.RunReport,
) models.SaveReport {
	var save models.SaveReport

	for _, p := range posts {
		if err := r.sink.UpsertPostMetrics(ctx, p.Metrics(processedAt)); err != nil {
			save.MetricsFailed++
			r.recordError(report, "save_metrics", fmt.Errorf("post %s: %w", p.PostID, err))
			continue
		}
		save.MetricsSaved++
	}

	for _, t := range topics {
		if err := r.sink.InsertTopicSummary(ctx, t, processedAt); err != nil {
			save.TopicsFailed++
			r.recordError(report, "save_topics", fmt.Errorf("topic %d: %w", t.TopicID, err))
			continue
		}
		save.TopicsSaved++
	}

	for _, kt := range keywordTrends {
		if err := r.sink.UpsertKeywordTrend(ctx, kt, processedAt); err != nil {
			save.TrendsFailed++
			r.recordError(report, "save_trends", fmt.Errorf("trend %s@%s: %w", kt.Keyword, kt.Date, err))
			continue
		}
		save.TrendsSaved++
	}

	return save
}

func (r *Runner) recordError(report *models.RunReport, stage string, err error) {
	report.Errors = append(report.Errors, err.Error())
	stageErrors.WithLabelValues(stage).Inc()
	r.log.Error("pipeline stage error", slog.String("stage", stage), slog.Any("err", err))
}

func distinctKeywords(keywordTrends []models.KeywordTrend) int {
	seen := make(map[string]struct{})
	for _, kt := range keywordTrends {
		seen[kt.Keyword] = struct{}{}
	}
	return len(seen)
}
