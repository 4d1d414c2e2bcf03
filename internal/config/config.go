package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by the services that read
// or write the derived indexes.
type Common struct {
	ElasticsearchAddr string
	IndexPrefix       string
}

// Engine holds the scoring and trend-detection knobs consumed by the
// analysis pipeline.
type Engine struct {
	MinInteractionsThreshold int
	MaxTopics                int
	KeywordMinFreq           int
	MomentumWindowDays       int
	DaysBack                 int
	SentimentEnabled         bool
	ClusterTimeout           time.Duration
}

// Worker holds configuration for the Kafka -> SQLite ingest worker.
type Worker struct {
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaConsumer  string
	SQLitePath     string
	DedupeCapacity int
	DedupeTTL      time.Duration
	BatchSize      int
}

// Analyzer configures the pipeline runner.
type Analyzer struct {
	Common
	Engine
	SQLitePath string
	Interval   time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr    string
	SQLitePath  string
	DefaultPage int
	MaxPage     int
}

// Retention configures the cleanup loop over raw posts and derived docs.
type Retention struct {
	Common
	SQLitePath string
	Interval   time.Duration
	MaxAge     time.Duration
	BatchSize  int
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "posts_raw"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "posts-worker"),
		SQLitePath:     getEnv("SQLITE_PATH", "threads_radar.db"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.SQLitePath == "" {
		return nil, fmt.Errorf("SQLITE_PATH cannot be empty")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAnalyzer builds an Analyzer config from environment variables.
func LoadAnalyzer() (*Analyzer, error) {
	c := &Analyzer{
		Common: loadCommon(),
		Engine: Engine{
			MinInteractionsThreshold: getInt("MIN_INTERACTIONS_THRESHOLD", 5),
			MaxTopics:                getInt("MAX_TOPICS", 20),
			KeywordMinFreq:           getInt("KEYWORD_MIN_FREQ", 3),
			MomentumWindowDays:       getInt("MOMENTUM_WINDOW_DAYS", 3),
			DaysBack:                 getInt("ANALYZE_DAYS_BACK", 7),
			SentimentEnabled:         getBool("SENTIMENT_ENABLED", false),
			ClusterTimeout:           getDuration("CLUSTER_TIMEOUT", "30s"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "threads_radar.db"),
		Interval:   getDuration("ANALYZE_INTERVAL", "6h"),
	}

	if c.MinInteractionsThreshold < 0 {
		return nil, fmt.Errorf("MIN_INTERACTIONS_THRESHOLD cannot be negative")
	}
	if c.MaxTopics < 2 {
		return nil, fmt.Errorf("MAX_TOPICS must be at least 2")
	}
	if c.KeywordMinFreq <= 0 {
		return nil, fmt.Errorf("KEYWORD_MIN_FREQ must be positive")
	}
	if c.MomentumWindowDays < 2 {
		return nil, fmt.Errorf("MOMENTUM_WINDOW_DAYS must be at least 2")
	}
	if c.DaysBack <= 0 {
		return nil, fmt.Errorf("ANALYZE_DAYS_BACK must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("ANALYZE_INTERVAL must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:      loadCommon(),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		SQLitePath:  getEnv("SQLITE_PATH", "threads_radar.db"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:     loadCommon(),
		SQLitePath: getEnv("SQLITE_PATH", "threads_radar.db"),
		Interval:   getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:     getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize:  getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		IndexPrefix:       getEnv("ELASTICSEARCH_INDEX_PREFIX", "threads"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
