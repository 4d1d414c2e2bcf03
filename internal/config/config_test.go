package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/threadsradar/threads-radar/internal/config"
)

func TestLoadWorkerDefaults(t *testing.T) {
	c, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"kafka:9092"}, c.KafkaBrokers)
	require.Equal(t, "posts_raw", c.KafkaTopic)
	require.Equal(t, "posts-worker", c.KafkaConsumer)
	require.Equal(t, "threads_radar.db", c.SQLitePath)
	require.Equal(t, 20000, c.DedupeCapacity)
	require.Equal(t, 24*time.Hour, c.DedupeTTL)
	require.Equal(t, 10, c.BatchSize)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("KAFKA_TOPIC", "scraped")
	t.Setenv("WORKER_DEDUPE_TTL", "90m")
	t.Setenv("WORKER_BATCH_SIZE", "25")

	c, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"b1:9092", "b2:9092"}, c.KafkaBrokers)
	require.Equal(t, "scraped", c.KafkaTopic)
	require.Equal(t, 90*time.Minute, c.DedupeTTL)
	require.Equal(t, 25, c.BatchSize)
}

func TestLoadWorkerRejectsBadValues(t *testing.T) {
	t.Setenv("WORKER_BATCH_SIZE", "-1")
	_, err := config.LoadWorker()
	require.Error(t, err)
	require.Contains(t, err.Error(), "WORKER_BATCH_SIZE")
}

func TestLoadAnalyzerDefaults(t *testing.T) {
	c, err := config.LoadAnalyzer()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", c.ElasticsearchAddr)
	require.Equal(t, "threads", c.IndexPrefix)
	require.Equal(t, 5, c.MinInteractionsThreshold)
	require.Equal(t, 20, c.MaxTopics)
	require.Equal(t, 3, c.KeywordMinFreq)
	require.Equal(t, 3, c.MomentumWindowDays)
	require.Equal(t, 7, c.DaysBack)
	require.False(t, c.SentimentEnabled)
	require.Equal(t, 30*time.Second, c.ClusterTimeout)
	require.Equal(t, 6*time.Hour, c.Interval)
}

func TestLoadAnalyzerOverrides(t *testing.T) {
	t.Setenv("MIN_INTERACTIONS_THRESHOLD", "10")
	t.Setenv("MAX_TOPICS", "8")
	t.Setenv("SENTIMENT_ENABLED", "true")
	t.Setenv("CLUSTER_TIMEOUT", "2m")

	c, err := config.LoadAnalyzer()
	require.NoError(t, err)

	require.Equal(t, 10, c.MinInteractionsThreshold)
	require.Equal(t, 8, c.MaxTopics)
	require.True(t, c.SentimentEnabled)
	require.Equal(t, 2*time.Minute, c.ClusterTimeout)
}

func TestLoadAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "negative threshold", key: "MIN_INTERACTIONS_THRESHOLD", value: "-1"},
		{name: "max topics too small", key: "MAX_TOPICS", value: "1"},
		{name: "zero keyword min freq", key: "KEYWORD_MIN_FREQ", value: "0"},
		{name: "momentum window too small", key: "MOMENTUM_WINDOW_DAYS", value: "1"},
		{name: "zero days back", key: "ANALYZE_DAYS_BACK", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.LoadAnalyzer()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadAnalyzerBadDurationFallsBack(t *testing.T) {
	t.Setenv("ANALYZE_INTERVAL", "not-a-duration")
	c, err := config.LoadAnalyzer()
	require.NoError(t, err)
	require.Equal(t, 6*time.Hour, c.Interval)
}

func TestLoadAPIDefaults(t *testing.T) {
	c, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", c.BindAddr)
	require.Equal(t, 20, c.DefaultPage)
	require.Equal(t, 100, c.MaxPage)
}

func TestLoadAPIPageBounds(t *testing.T) {
	t.Setenv("API_PAGE_SIZE", "200")
	t.Setenv("API_MAX_PAGE_SIZE", "100")
	_, err := config.LoadAPI()
	require.Error(t, err)
	require.Contains(t, err.Error(), "API_PAGE_SIZE")
}

func TestLoadRetentionDefaults(t *testing.T) {
	c, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 24*time.Hour, c.Interval)
	require.Equal(t, 720*time.Hour, c.MaxAge)
	require.Equal(t, 500, c.BatchSize)
}

func TestLoadRetentionRejectsBadBatchSize(t *testing.T) {
	t.Setenv("RETENTION_BATCH_SIZE", "0")
	_, err := config.LoadRetention()
	require.Error(t, err)
	require.Contains(t, err.Error(), "RETENTION_BATCH_SIZE")
}
