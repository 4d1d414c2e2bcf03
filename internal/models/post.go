package models

import "time"

// Sentiment labels attached to topic summaries.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// RawPost is one scraped post as the ingest worker stored it. It is never
// mutated after ingestion; post_id is the deduplication key.
type RawPost struct {
	PostID    string    `json:"post_id" db:"post_id"`
	Username  string    `json:"username" db:"username"`
	Content   string    `json:"content" db:"content"`
	Likes     int       `json:"likes" db:"likes"`
	Replies   int       `json:"replies" db:"replies"`
	Reposts   int       `json:"reposts" db:"reposts"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	ScrapedAt time.Time `json:"scraped_at" db:"scraped_at"`
}

// EnrichedPost is a RawPost plus the derived per-post signals. Calculator
// stages only append fields; they never rewrite the raw ones.
type EnrichedPost struct {
	RawPost
	TotalInteractions int     `json:"total_interactions"`
	HoursSincePost    float64 `json:"hours_since_post"`
	HeatDensity       float64 `json:"heat_density"`
	FreshnessScore    float64 `json:"freshness_score"`
	EngagementRate    float64 `json:"engagement_rate"`
	ViralPotential    float64 `json:"viral_potential"`
}

// TermWeight pairs a vocabulary term with its mean TF-IDF weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopicSummary describes one cluster found in a run. Each run produces a
// fresh, independent set of topics; there is no cross-run topic identity.
type TopicSummary struct {
	TopicID            int      `json:"topic_id"`
	TopicKeywords      []string `json:"topic_keywords"`
	TopicName          string   `json:"topic_name"`
	PostCount          int      `json:"post_count"`
	AverageHeatDensity float64  `json:"average_heat_density"`
	TotalInteractions  int      `json:"total_interactions"`
	DominantSentiment  string   `json:"dominant_sentiment"`
	TrendingScore      float64  `json:"trending_score"`
}

// KeywordTrend is one (keyword, calendar day) observation. Date is a UTC
// calendar day formatted as 2006-01-02; the pair is unique within a run.
type KeywordTrend struct {
	Keyword           string  `json:"keyword"`
	Date              string  `json:"date"`
	PostCount         int     `json:"post_count"`
	TotalInteractions int     `json:"total_interactions"`
	AverageSentiment  float64 `json:"average_sentiment"`
	MomentumScore     float64 `json:"momentum_score"`
}

// PostMetrics is the per-post output stream handed to the persistence
// adapter, upserted by post_id.
type PostMetrics struct {
	PostID            string    `json:"post_id"`
	TotalInteractions int       `json:"total_interactions"`
	HeatDensity       float64   `json:"heat_density"`
	FreshnessScore    float64   `json:"freshness_score"`
	EngagementRate    float64   `json:"engagement_rate"`
	ViralPotential    float64   `json:"viral_potential"`
	ProcessedAt       time.Time `json:"processed_at"`
}

// SaveReport counts records handed to the persistence adapter per stream.
type SaveReport struct {
	MetricsSaved  int `json:"metrics_saved"`
	MetricsFailed int `json:"metrics_failed"`
	TopicsSaved   int `json:"topics_saved"`
	TopicsFailed  int `json:"topics_failed"`
	TrendsSaved   int `json:"trends_saved"`
	TrendsFailed  int `json:"trends_failed"`
}

// RunReport summarizes one full analysis run. Failures surface here as
// counts and error strings, never as a panic out of the engine.
type RunReport struct {
	PostsProcessed    int        `json:"posts_processed"`
	MetricsCalculated int        `json:"metrics_calculated"`
	TopicsIdentified  int        `json:"topics_identified"`
	KeywordsAnalyzed  int        `json:"keywords_analyzed"`
	Save              SaveReport `json:"save_results"`
	Errors            []string   `json:"errors,omitempty"`
	ElapsedSeconds    float64    `json:"execution_time"`
}

// Metrics converts an enriched post into its persistence form.
func (p EnrichedPost) Metrics(processedAt time.Time) PostMetrics {
	return PostMetrics{
		PostID:            p.PostID,
		TotalInteractions: p.TotalInteractions,
		HeatDensity:       p.HeatDensity,
		FreshnessScore:    p.FreshnessScore,
		EngagementRate:    p.EngagementRate,
		ViralPotential:    p.ViralPotential,
		ProcessedAt:       processedAt,
	}
}
